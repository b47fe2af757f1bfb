package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duitku/debt-engine/internal/domain"
	customError "github.com/duitku/debt-engine/pkg/errors"
)

func conventionalDebt(principalCents int64, rate float64, termMonths int, start time.Time) *domain.Debt {
	maturity := start.AddDate(0, termMonths, 0)
	return &domain.Debt{
		ID:                  uuid.New(),
		HouseholdID:         uuid.New(),
		Type:                domain.DebtTypeConventional,
		Name:                "Loan",
		Creditor:            "Bank",
		PrincipalCents:      principalCents,
		CurrentBalanceCents: principalCents,
		Currency:            "IDR",
		InterestRate:        decimal.NewNullDecimal(decimal.NewFromFloat(rate)),
		StartDate:           start,
		MaturityDate:        &maturity,
		IsActive:            true,
	}
}

func TestConventionalSchedule_TwelveMonthLoan(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	debt := conventionalDebt(12_000_000_00, 0.12, 12, start)

	result, err := ComputeScheduleAt(debt, nil, start)
	require.NoError(t, err)

	require.Len(t, result.Items, 12)

	// First installment: interest on the full balance at 1% monthly.
	first := result.Items[0]
	assert.Equal(t, 1, first.PaymentNumber)
	assert.InDelta(t, 120_000.0, first.InterestAmount, 0.01)
	assert.InDelta(t, 1_066_186, result.MonthlyPayment, 10)

	// Reducing balance: interest falls, principal rises.
	for i := 1; i < len(result.Items); i++ {
		assert.Less(t, result.Items[i].InterestAmount, result.Items[i-1].InterestAmount)
		assert.Greater(t, result.Items[i].PrincipalAmount, result.Items[i-1].PrincipalAmount)
	}

	// Final installment clears the balance exactly.
	assert.Equal(t, 0.0, result.Items[len(result.Items)-1].RemainingBalance)

	// Conservation: projected principal sums to the original principal
	// within one cent per row.
	var projectedPrincipal float64
	for _, item := range result.Items {
		projectedPrincipal += item.PrincipalAmount
	}
	assert.InDelta(t, 12_000_000.0, projectedPrincipal, float64(len(result.Items))*0.01)

	assert.Equal(t, 12_000_000.0, result.TotalPrincipal)
	assert.InDelta(t, result.TotalPrincipal+result.TotalInterest, result.TotalAmount, 0.01)
	require.NotNil(t, result.NextPaymentDue)
	require.NotNil(t, result.PayoffDate)
	assert.True(t, result.PayoffDate.After(*result.NextPaymentDue))
}

func TestConventionalSchedule_Idempotent(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	debt := conventionalDebt(50_000_00, 0.08, 24, start)
	now := start.AddDate(0, 2, 0)

	first, err := ComputeScheduleAt(debt, nil, now)
	require.NoError(t, err)
	second, err := ComputeScheduleAt(debt, nil, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestConventionalSchedule_HistoryPrepended(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	debt := conventionalDebt(12_000_000_00, 0.12, 12, start)
	debt.CurrentBalanceCents = 11_000_000_00

	payments := []*domain.DebtPayment{
		{
			ID:             uuid.New(),
			DebtID:         debt.ID,
			AmountCents:    1_120_000_00,
			PrincipalCents: 1_000_000_00,
			InterestCents:  120_000_00,
			PaymentDate:    start.AddDate(0, 1, 0),
		},
	}

	result, err := ComputeScheduleAt(debt, payments, start.AddDate(0, 2, 0))
	require.NoError(t, err)

	require.NotEmpty(t, result.Items)
	historical := result.Items[0]
	assert.Equal(t, -1, historical.PaymentNumber)
	assert.True(t, historical.IsPaid)
	require.NotNil(t, historical.ActualPaymentDate)
	assert.Equal(t, 1_120_000.0, historical.PaymentAmount)
	assert.Equal(t, 11_000_000.0, historical.RemainingBalance)

	assert.Equal(t, 1, result.Items[1].PaymentNumber)

	// Interest already paid counts toward the total.
	assert.GreaterOrEqual(t, result.TotalInterest, 120_000.0)
}

func TestConventionalSchedule_DueDatesPinnedToStartDay(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	debt := conventionalDebt(10_000_00, 0.12, 6, start)

	result, err := ComputeScheduleAt(debt, nil, start)
	require.NoError(t, err)
	require.NotEmpty(t, result.Items)

	// February clamps to its last day, other months keep day 31.
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), result.Items[0].DueDate)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), result.Items[1].DueDate)
}

func TestConventionalSchedule_TermLadderWithoutMaturity(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		principalCents int64
		expectedRows   int
	}{
		{"small principal 36 months", 9_000_00, 36},
		{"medium principal 60 months", 40_000_00, 60},
		{"large principal 120 months", 80_000_00, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debt := conventionalDebt(tt.principalCents, 0.12, 12, start)
			debt.MaturityDate = nil

			result, err := ComputeScheduleAt(debt, nil, start)
			require.NoError(t, err)
			assert.Len(t, result.Items, tt.expectedRows)
		})
	}
}

func TestIslamicSchedule_MurabahahTotals(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	maturity := start.AddDate(1, 0, 0)
	debt := &domain.Debt{
		ID:                  uuid.New(),
		HouseholdID:         uuid.New(),
		Type:                domain.DebtTypeIslamic,
		Name:                "Home financing",
		Creditor:            "Bank Syariah",
		PrincipalCents:      10_000_000_00,
		CurrentBalanceCents: 10_000_000_00,
		Currency:            "IDR",
		MarginRate:          decimal.NewNullDecimal(decimal.NewFromFloat(0.06)),
		StartDate:           start,
		MaturityDate:        &maturity,
		IsActive:            true,
	}

	result, err := ComputeScheduleAt(debt, nil, start)
	require.NoError(t, err)

	// Fixed selling price: principal + margin, exactly.
	assert.Equal(t, 10_000_000.0, result.TotalPrincipal)
	assert.Equal(t, 600_000.0, result.TotalInterest)
	assert.Equal(t, 10_600_000.0, result.TotalAmount)

	require.Len(t, result.Items, 12)
	assert.InDelta(t, 883_333.33, result.MonthlyPayment, 0.01)

	// Flat installments, proportional principal/margin split, and the last
	// row absorbs the remainder exactly.
	var paid, principal, margin float64
	for _, item := range result.Items {
		paid += item.PaymentAmount
		principal += item.PrincipalAmount
		margin += item.InterestAmount
	}
	assert.InDelta(t, 10_600_000.0, paid, float64(len(result.Items))*0.01)
	assert.InDelta(t, 10_000_000.0, principal, float64(len(result.Items))*0.01)
	assert.InDelta(t, 600_000.0, margin, float64(len(result.Items))*0.01)
	assert.Equal(t, 0.0, result.Items[len(result.Items)-1].RemainingBalance)
}

func TestIslamicSchedule_MarginPaidReducesRemaining(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	maturity := start.AddDate(1, 0, 0)
	debt := &domain.Debt{
		ID:                  uuid.New(),
		Type:                domain.DebtTypeIslamic,
		PrincipalCents:      10_000_000_00,
		CurrentBalanceCents: 9_200_000_00,
		Currency:            "IDR",
		MarginRate:          decimal.NewNullDecimal(decimal.NewFromFloat(0.06)),
		StartDate:           start,
		MaturityDate:        &maturity,
	}

	payments := []*domain.DebtPayment{
		{
			ID:             uuid.New(),
			DebtID:         debt.ID,
			AmountCents:    850_000_00,
			PrincipalCents: 800_000_00,
			InterestCents:  50_000_00,
			PaymentDate:    start.AddDate(0, 1, 0),
		},
	}

	result, err := ComputeScheduleAt(debt, payments, start.AddDate(0, 1, 5))
	require.NoError(t, err)

	// Remaining margin is the fixed total minus what was already paid.
	var projectedMargin float64
	for _, item := range result.Items {
		if item.PaymentNumber > 0 {
			projectedMargin += item.InterestAmount
		}
	}
	assert.InDelta(t, 550_000.0, projectedMargin, float64(len(result.Items))*0.01)
}

func TestPersonalSchedule_HistoryOnly(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	debt := &domain.Debt{
		ID:                  uuid.New(),
		Type:                domain.DebtTypePersonal,
		PrincipalCents:      5_000_000_00,
		CurrentBalanceCents: 3_000_000_00,
		Currency:            "IDR",
		StartDate:           start,
	}

	payments := []*domain.DebtPayment{
		{
			ID:             uuid.New(),
			DebtID:         debt.ID,
			AmountCents:    1_500_000_00,
			PrincipalCents: 1_500_000_00,
			PaymentDate:    start.AddDate(0, 1, 0),
		},
		{
			ID:             uuid.New(),
			DebtID:         debt.ID,
			AmountCents:    500_000_00,
			PrincipalCents: 500_000_00,
			PaymentDate:    start.AddDate(0, 2, 0),
		},
	}

	result, err := ComputeScheduleAt(debt, payments, start.AddDate(0, 3, 0))
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, -2, result.Items[0].PaymentNumber)
	assert.Equal(t, -1, result.Items[1].PaymentNumber)
	for _, item := range result.Items {
		assert.True(t, item.IsPaid)
		assert.Equal(t, 0.0, item.InterestAmount)
	}

	assert.Equal(t, 2_000_000.0, result.TotalPrincipal)
	assert.Equal(t, 0.0, result.TotalInterest)
	assert.Nil(t, result.NextPaymentDue)
	assert.Nil(t, result.PayoffDate)
}

func TestComputeSchedule_UnsupportedType(t *testing.T) {
	debt := &domain.Debt{
		ID:       uuid.New(),
		Type:     "PAYDAY",
		Currency: "IDR",
	}

	_, err := ComputeScheduleAt(debt, nil, time.Now())
	var businessErr *customError.BusinessError
	require.ErrorAs(t, err, &businessErr)
	assert.Equal(t, customError.ErrCodeUnsupportedDebtType, businessErr.Code)
}
