package service

import (
	"math"
	"sort"
	"time"

	"github.com/duitku/debt-engine/internal/domain"
	customError "github.com/duitku/debt-engine/pkg/errors"
	"github.com/duitku/debt-engine/pkg/utils"
)

// Default term ladders (months by principal size, major units) used when a
// debt carries no maturity date.
var conventionalTermLadder = []termRung{
	{ceiling: 10_000, months: 36},
	{ceiling: 50_000, months: 60},
	{ceiling: math.MaxFloat64, months: 120},
}

var islamicTermLadder = []termRung{
	{ceiling: 50_000, months: 60},
	{ceiling: 200_000, months: 120},
	{ceiling: math.MaxFloat64, months: 240},
}

type termRung struct {
	ceiling float64
	months  int
}

// scheduleModel computes the full schedule for one debt type. All models are
// pure functions of the debt, its payment history, and the reference time.
type scheduleModel func(debt *domain.Debt, payments []*domain.DebtPayment, now time.Time) *domain.ScheduleResult

var scheduleModels = map[domain.DebtType]scheduleModel{
	domain.DebtTypePersonal:     personalSchedule,
	domain.DebtTypeConventional: conventionalSchedule,
	domain.DebtTypeIslamic:      islamicSchedule,
}

// ComputeSchedule derives the historical + projected payment schedule for a
// debt. Nothing is persisted; calling it twice with the same inputs yields
// identical output.
func ComputeSchedule(debt *domain.Debt, payments []*domain.DebtPayment) (*domain.ScheduleResult, error) {
	return ComputeScheduleAt(debt, payments, time.Now().UTC())
}

// ComputeScheduleAt is ComputeSchedule with an explicit reference time.
func ComputeScheduleAt(debt *domain.Debt, payments []*domain.DebtPayment, now time.Time) (*domain.ScheduleResult, error) {
	model, ok := scheduleModels[debt.Type]
	if !ok {
		return nil, customError.WrapUnsupportedDebtType(string(debt.Type))
	}

	sorted := make([]*domain.DebtPayment, len(payments))
	copy(sorted, payments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PaymentDate.Before(sorted[j].PaymentDate)
	})

	return model(debt, sorted, now), nil
}

// personalSchedule re-presents the payment history. Personal loans carry no
// interest and no fixed term, so there is nothing to project.
func personalSchedule(debt *domain.Debt, payments []*domain.DebtPayment, _ time.Time) *domain.ScheduleResult {
	result := newResult(debt)
	result.Items = historicalItems(debt, payments)
	result.TotalPrincipal = utils.MajorFromCents(debt.PrincipalCents - debt.CurrentBalanceCents)
	result.TotalInterest = 0
	result.TotalAmount = utils.MajorFromCents(debt.PrincipalCents)
	return result
}

// conventionalSchedule projects a reducing-balance loan: a fixed monthly
// payment from the standard amortization formula, interest accruing on the
// outstanding balance each month.
func conventionalSchedule(debt *domain.Debt, payments []*domain.DebtPayment, now time.Time) *domain.ScheduleResult {
	annualRate := 0.0
	if debt.InterestRate.Valid {
		annualRate = debt.InterestRate.Decimal.InexactFloat64()
	}
	monthlyRate := annualRate / 12

	term := debtTermMonths(debt, conventionalTermLadder)
	remaining := remainingTermMonths(debt, payments, now, term)

	balance := utils.MajorFromCents(debt.CurrentBalanceCents)
	payment := amortizedPayment(balance, monthlyRate, remaining)

	result := newResult(debt)
	result.Items = historicalItems(debt, payments)
	result.MonthlyPayment = payment

	projectedInterest := 0.0
	for k := 1; k <= remaining && balance >= 0.01; k++ {
		interest := utils.RoundCents(balance * monthlyRate)
		principal := utils.RoundCents(payment - interest)
		if principal > balance || k == remaining {
			principal = balance
		}
		balance = utils.RoundCents(balance - principal)
		projectedInterest = utils.RoundCents(projectedInterest + interest)

		result.Items = append(result.Items, domain.ScheduleItem{
			PaymentNumber:    k,
			DueDate:          utils.MonthlyDueDate(now, k, debt.StartDate.Day()),
			PaymentAmount:    utils.RoundCents(principal + interest),
			PrincipalAmount:  principal,
			InterestAmount:   interest,
			RemainingBalance: balance,
		})
	}

	interestPaid := 0.0
	for _, p := range payments {
		interestPaid = utils.RoundCents(interestPaid + utils.MajorFromCents(p.InterestCents))
	}

	result.TotalPrincipal = utils.MajorFromCents(debt.PrincipalCents)
	result.TotalInterest = utils.RoundCents(projectedInterest + interestPaid)
	result.TotalAmount = utils.RoundCents(result.TotalPrincipal + result.TotalInterest)
	fillProjectionDates(result)
	return result
}

// islamicSchedule projects Murabahah financing: the total profit margin is
// fixed at origination, and each flat installment is split between principal
// and margin in proportion to their remaining balances.
func islamicSchedule(debt *domain.Debt, payments []*domain.DebtPayment, now time.Time) *domain.ScheduleResult {
	marginRate := 0.0
	if debt.MarginRate.Valid {
		marginRate = debt.MarginRate.Decimal.InexactFloat64()
	}

	principalMajor := utils.MajorFromCents(debt.PrincipalCents)
	totalMargin := utils.RoundCents(principalMajor * marginRate)

	marginPaid := 0.0
	for _, p := range payments {
		marginPaid = utils.RoundCents(marginPaid + utils.MajorFromCents(p.InterestCents))
	}

	remainingPrincipal := utils.MajorFromCents(debt.CurrentBalanceCents)
	remainingMargin := utils.RoundCents(totalMargin - marginPaid)
	if remainingMargin < 0 {
		remainingMargin = 0
	}

	term := debtTermMonths(debt, islamicTermLadder)
	remaining := remainingTermMonths(debt, payments, now, term)
	payment := utils.RoundCents((remainingPrincipal + remainingMargin) / float64(remaining))

	result := newResult(debt)
	result.Items = historicalItems(debt, payments)
	result.MonthlyPayment = payment

	for k := 1; k <= remaining && remainingPrincipal+remainingMargin >= 0.01; k++ {
		var principal, margin float64
		if k == remaining {
			// Final installment absorbs whatever is left exactly.
			principal = remainingPrincipal
			margin = remainingMargin
		} else {
			principal = utils.RoundCents(payment * remainingPrincipal / (remainingPrincipal + remainingMargin))
			if principal > remainingPrincipal {
				principal = remainingPrincipal
			}
			margin = utils.RoundCents(payment - principal)
			if margin > remainingMargin {
				margin = remainingMargin
			}
		}
		remainingPrincipal = utils.RoundCents(remainingPrincipal - principal)
		remainingMargin = utils.RoundCents(remainingMargin - margin)

		result.Items = append(result.Items, domain.ScheduleItem{
			PaymentNumber:    k,
			DueDate:          utils.MonthlyDueDate(now, k, debt.StartDate.Day()),
			PaymentAmount:    utils.RoundCents(principal + margin),
			PrincipalAmount:  principal,
			InterestAmount:   margin,
			RemainingBalance: remainingPrincipal,
		})
	}

	result.TotalPrincipal = principalMajor
	result.TotalInterest = totalMargin
	result.TotalAmount = utils.RoundCents(principalMajor + totalMargin)
	fillProjectionDates(result)
	return result
}

func newResult(debt *domain.Debt) *domain.ScheduleResult {
	return &domain.ScheduleResult{
		DebtID:           debt.ID,
		DebtType:         debt.Type,
		Currency:         debt.Currency,
		Items:            []domain.ScheduleItem{},
		RemainingBalance: utils.MajorFromCents(debt.CurrentBalanceCents),
	}
}

// historicalItems turns the payment history into schedule rows with negative
// payment numbers; the most recent payment is row -1. The running balance is
// reconstructed from the original principal.
func historicalItems(debt *domain.Debt, payments []*domain.DebtPayment) []domain.ScheduleItem {
	items := make([]domain.ScheduleItem, 0, len(payments))
	balance := utils.MajorFromCents(debt.PrincipalCents)

	for i, p := range payments {
		balance = utils.RoundCents(balance - utils.MajorFromCents(p.PrincipalCents))
		paymentDate := p.PaymentDate
		items = append(items, domain.ScheduleItem{
			PaymentNumber:     i - len(payments),
			DueDate:           paymentDate,
			PaymentAmount:     utils.MajorFromCents(p.AmountCents),
			PrincipalAmount:   utils.MajorFromCents(p.PrincipalCents),
			InterestAmount:    utils.MajorFromCents(p.InterestCents),
			RemainingBalance:  balance,
			IsPaid:            true,
			ActualPaymentDate: &paymentDate,
		})
	}

	return items
}

// debtTermMonths derives the term from the maturity date when present,
// otherwise from the default ladder for the model.
func debtTermMonths(debt *domain.Debt, ladder []termRung) int {
	if debt.MaturityDate != nil {
		if months := utils.MonthsBetween(debt.StartDate, *debt.MaturityDate); months > 0 {
			return months
		}
		return 1
	}

	principal := utils.MajorFromCents(debt.PrincipalCents)
	for _, rung := range ladder {
		if principal <= rung.ceiling {
			return rung.months
		}
	}
	return ladder[len(ladder)-1].months
}

// remainingTermMonths subtracts the months elapsed since the first payment
// (or since the start date when nothing has been paid), floored at one.
func remainingTermMonths(debt *domain.Debt, payments []*domain.DebtPayment, now time.Time, term int) int {
	anchor := debt.StartDate
	if len(payments) > 0 {
		anchor = payments[0].PaymentDate
	}

	remaining := term - utils.MonthsBetween(anchor, now)
	if remaining < 1 {
		return 1
	}
	return remaining
}

// amortizedPayment computes the fixed monthly payment for a reducing-balance
// loan: balance * r * (1+r)^n / ((1+r)^n - 1). Falls back to a straight
// division when the rate is zero.
func amortizedPayment(balance, monthlyRate float64, months int) float64 {
	if months < 1 {
		months = 1
	}
	if monthlyRate == 0 {
		return utils.RoundCents(balance / float64(months))
	}
	pow := math.Pow(1+monthlyRate, float64(months))
	return utils.RoundCents(balance * monthlyRate * pow / (pow - 1))
}

func fillProjectionDates(result *domain.ScheduleResult) {
	for i := range result.Items {
		if result.Items[i].PaymentNumber > 0 {
			due := result.Items[i].DueDate
			result.NextPaymentDue = &due
			break
		}
	}
	if last := len(result.Items) - 1; last >= 0 && result.Items[last].PaymentNumber > 0 {
		payoff := result.Items[last].DueDate
		result.PayoffDate = &payoff
	}
}
