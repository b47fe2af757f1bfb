package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/duitku/debt-engine/internal/config"
	"github.com/duitku/debt-engine/internal/domain"
	"github.com/duitku/debt-engine/internal/repository"
	customError "github.com/duitku/debt-engine/pkg/errors"
	"github.com/duitku/debt-engine/pkg/utils"
)

const dateLayout = "2006-01-02"

type DebtService struct {
	debtRepo    repository.DebtRepository
	paymentRepo repository.PaymentRepository
	redis       *redis.Client
	config      *config.Config
	locks       *debtLocks
	now         func() time.Time
}

func NewDebtService(
	debtRepo repository.DebtRepository,
	paymentRepo repository.PaymentRepository,
	redisClient *redis.Client,
	cfg *config.Config,
) *DebtService {
	return &DebtService{
		debtRepo:    debtRepo,
		paymentRepo: paymentRepo,
		redis:       redisClient,
		config:      cfg,
		locks:       newDebtLocks(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateDebt validates and persists a new debt. The current balance starts
// at the full principal.
func (s *DebtService) CreateDebt(ctx context.Context, householdID uuid.UUID, req *domain.CreateDebtRequest) (*domain.Debt, error) {
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, customError.NewValidationError("start_date", "must be a valid date (YYYY-MM-DD)")
	}

	var maturityDate *time.Time
	if req.MaturityDate != nil {
		parsed, err := time.Parse(dateLayout, *req.MaturityDate)
		if err != nil {
			return nil, customError.NewValidationError("maturity_date", "must be a valid date (YYYY-MM-DD)")
		}
		maturityDate = &parsed
	}

	principalCents := utils.CentsFromDecimal(req.PrincipalAmount)
	nowTime := s.now()

	debt := &domain.Debt{
		ID:                  uuid.New(),
		HouseholdID:         householdID,
		Type:                req.Type,
		Name:                req.Name,
		Creditor:            req.Creditor,
		PrincipalCents:      principalCents,
		CurrentBalanceCents: principalCents,
		Currency:            req.Currency,
		InterestRate:        nullDecimal(req.InterestRate),
		MarginRate:          nullDecimal(req.MarginRate),
		StartDate:           utils.DateOnly(startDate),
		MaturityDate:        maturityDate,
		IsActive:            true,
		CreatedAt:           nowTime,
		UpdatedAt:           nowTime,
	}

	if err := ValidateDebtFields(debt); err != nil {
		return nil, err
	}

	if err := s.debtRepo.Create(ctx, debt); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateSummary(ctx, householdID)
	return debt, nil
}

// GetDebt loads a debt and enforces household ownership.
func (s *DebtService) GetDebt(ctx context.Context, householdID, debtID uuid.UUID) (*domain.Debt, error) {
	return s.loadDebt(ctx, householdID, debtID)
}

func (s *DebtService) ListDebts(ctx context.Context, householdID uuid.UUID, filter domain.DebtFilter) ([]*domain.Debt, error) {
	debts, err := s.debtRepo.List(ctx, householdID, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return debts, nil
}

// UpdateDebt applies the provided fields and re-runs full field validation.
// When the request carries a new type, the request's rate fields replace the
// stored ones wholesale so a type change can also clear a stale rate.
func (s *DebtService) UpdateDebt(ctx context.Context, householdID, debtID uuid.UUID, req *domain.UpdateDebtRequest) (*domain.Debt, error) {
	debt, err := s.loadDebt(ctx, householdID, debtID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		debt.Name = *req.Name
	}
	if req.Creditor != nil {
		debt.Creditor = *req.Creditor
	}
	if req.IsActive != nil {
		debt.IsActive = *req.IsActive
	}
	if req.Type != nil {
		debt.Type = *req.Type
		debt.InterestRate = nullDecimal(req.InterestRate)
		debt.MarginRate = nullDecimal(req.MarginRate)
	} else {
		if req.InterestRate != nil {
			debt.InterestRate = nullDecimal(req.InterestRate)
		}
		if req.MarginRate != nil {
			debt.MarginRate = nullDecimal(req.MarginRate)
		}
	}
	if req.MaturityDate != nil {
		parsed, err := time.Parse(dateLayout, *req.MaturityDate)
		if err != nil {
			return nil, customError.NewValidationError("maturity_date", "must be a valid date (YYYY-MM-DD)")
		}
		debt.MaturityDate = &parsed
	}

	if err := ValidateDebtFields(debt); err != nil {
		return nil, err
	}

	if err := s.debtRepo.Update(ctx, debt); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateSummary(ctx, householdID)
	return debt, nil
}

func (s *DebtService) DeleteDebt(ctx context.Context, householdID, debtID uuid.UUID) error {
	if _, err := s.loadDebt(ctx, householdID, debtID); err != nil {
		return err
	}

	if err := s.debtRepo.Delete(ctx, debtID); err != nil {
		return customError.WrapDatabaseError(err)
	}

	s.invalidateSummary(ctx, householdID)
	return nil
}

// RecordPayment validates and records a single payment. Checks run in order
// and the first failure aborts with no side effect. Recording is serialized
// per debt; the repository's guarded update is the cross-instance backstop.
func (s *DebtService) RecordPayment(ctx context.Context, householdID, debtID uuid.UUID, req *domain.CreateDebtPaymentRequest) (*domain.DebtPayment, error) {
	mu := s.locks.lock(debtID)
	defer mu.Unlock()

	debt, err := s.loadDebt(ctx, householdID, debtID)
	if err != nil {
		return nil, err
	}

	if !debt.IsActive {
		return nil, customError.WrapDebtInactive(debtID.String())
	}

	paymentDate, err := time.Parse(dateLayout, req.PaymentDate)
	if err != nil {
		return nil, customError.NewValidationError("payment_date", "must be a valid date (YYYY-MM-DD)")
	}
	paymentDate = utils.DateOnly(paymentDate)

	today := utils.DateOnly(s.now())
	if paymentDate.Before(utils.DateOnly(debt.StartDate)) {
		return nil, customError.WrapPaymentDateRange(
			fmt.Sprintf("payment date %s is before the debt start date", req.PaymentDate))
	}
	if paymentDate.After(today) {
		return nil, customError.WrapPaymentDateRange("payment date cannot be in the future")
	}

	amountCents := utils.CentsFromDecimal(req.Amount)
	principalCents := utils.CentsFromDecimal(req.PrincipalAmount)
	interestCents := int64(0)
	if req.InterestAmount != nil {
		interestCents = utils.CentsFromDecimal(*req.InterestAmount)
	}

	if amountCents <= 0 {
		return nil, customError.WrapInvalidPaymentAmount("amount must be positive")
	}
	if principalCents < 0 || interestCents < 0 {
		return nil, customError.WrapInvalidPaymentAmount("principal and interest portions must not be negative")
	}

	if principalCents > debt.CurrentBalanceCents {
		return nil, customError.WrapBalanceExceeded(
			utils.DecimalFromCents(principalCents).String(),
			utils.DecimalFromCents(debt.CurrentBalanceCents).String())
	}

	if diff := amountCents - (principalCents + interestCents); diff > s.amountTolerance() || diff < -s.amountTolerance() {
		return nil, customError.WrapAmountMismatch(
			utils.DecimalFromCents(amountCents).String(),
			utils.DecimalFromCents(principalCents+interestCents).String())
	}

	if debt.Type == domain.DebtTypePersonal && interestCents != 0 {
		return nil, customError.WrapInterestNotAllowed()
	}

	if err := s.checkInterestPlausibility(debt, interestCents); err != nil {
		return nil, err
	}

	if err := s.checkLikelyDuplicate(ctx, debtID, paymentDate, amountCents); err != nil {
		return nil, err
	}

	payment := &domain.DebtPayment{
		ID:             uuid.New(),
		DebtID:         debtID,
		AmountCents:    amountCents,
		PrincipalCents: principalCents,
		InterestCents:  interestCents,
		PaymentDate:    paymentDate,
		TransactionID:  req.TransactionID,
		CreatedAt:      s.now(),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, customError.ErrInsufficientBalance) {
			return nil, customError.WrapBalanceExceeded(
				utils.DecimalFromCents(principalCents).String(),
				utils.DecimalFromCents(debt.CurrentBalanceCents).String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateSummary(ctx, householdID)
	return payment, nil
}

// GetSchedule computes the amortization schedule on demand.
func (s *DebtService) GetSchedule(ctx context.Context, householdID, debtID uuid.UUID) (*domain.ScheduleResult, error) {
	debt, err := s.loadDebt(ctx, householdID, debtID)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByDebtID(ctx, debtID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return ComputeScheduleAt(debt, payments, s.now())
}

// GetSummary rolls up the household's active debts, with a short-lived redis
// cache in front of the computation.
func (s *DebtService) GetSummary(ctx context.Context, householdID uuid.UUID) (*domain.DebtSummary, error) {
	cacheKey := summaryCacheKey(householdID)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var summary domain.DebtSummary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	active := true
	debts, err := s.debtRepo.List(ctx, householdID, domain.DebtFilter{IsActive: &active})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	summary := &domain.DebtSummary{
		HouseholdID:  householdID,
		ActiveDebts:  len(debts),
		TotalBalance: decimal.Zero,
		ByType:       make(map[domain.DebtType]domain.TypeBreakdown),
	}

	now := s.now()
	today := utils.DateOnly(now)

	for _, debt := range debts {
		balance := utils.DecimalFromCents(debt.CurrentBalanceCents)
		summary.TotalBalance = summary.TotalBalance.Add(balance)

		breakdown := summary.ByType[debt.Type]
		breakdown.Count++
		breakdown.TotalBalance = breakdown.TotalBalance.Add(balance)
		summary.ByType[debt.Type] = breakdown

		payments, err := s.paymentRepo.ListByDebtID(ctx, debt.ID)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}

		schedule, err := ComputeScheduleAt(debt, payments, now)
		if err != nil {
			return nil, err
		}

		if schedule.NextPaymentDue != nil {
			bucketUpcoming(&summary.Upcoming, utils.DateOnly(*schedule.NextPaymentDue), today)
		}
		if schedule.PayoffDate != nil {
			if summary.ProjectedPayoff == nil || schedule.PayoffDate.After(*summary.ProjectedPayoff) {
				payoff := *schedule.PayoffDate
				summary.ProjectedPayoff = &payoff
			}
		}
	}

	if s.redis != nil {
		if encoded, err := json.Marshal(summary); err == nil {
			if err := s.redis.Set(ctx, cacheKey, encoded, s.summaryCacheTTL()).Err(); err != nil {
				log.Printf("summary cache write failed for household %s: %v", householdID, err)
			}
		}
	}

	return summary, nil
}

// bucketUpcoming files a due date into the narrowest matching bucket.
func bucketUpcoming(u *domain.UpcomingPayments, due, today time.Time) {
	switch {
	case due.Before(today):
		u.Overdue++
	case due.Equal(today):
		u.DueToday++
	case !due.After(today.AddDate(0, 0, 7)):
		u.DueThisWeek++
	case due.Month() == today.Month() && due.Year() == today.Year():
		u.DueThisMonth++
	}
}

func (s *DebtService) loadDebt(ctx context.Context, householdID, debtID uuid.UUID) (*domain.Debt, error) {
	debt, err := s.debtRepo.GetByID(ctx, debtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapDebtNotFound(debtID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if debt.HouseholdID != householdID {
		return nil, customError.NewBusinessError(
			customError.ErrCodeHouseholdMismatch,
			"debt belongs to a different household",
			customError.ErrHouseholdMismatch,
		)
	}

	return debt, nil
}

// checkInterestPlausibility rejects an interest or margin portion more than
// double the naive expected monthly amount, a guard against data-entry slips.
func (s *DebtService) checkInterestPlausibility(debt *domain.Debt, interestCents int64) error {
	var annualRate float64
	switch debt.Type {
	case domain.DebtTypeConventional:
		if debt.InterestRate.Valid {
			annualRate = debt.InterestRate.Decimal.InexactFloat64()
		}
	case domain.DebtTypeIslamic:
		if debt.MarginRate.Valid {
			annualRate = debt.MarginRate.Decimal.InexactFloat64()
		}
	default:
		return nil
	}

	if annualRate <= 0 {
		return nil
	}

	expected := utils.MajorFromCents(debt.CurrentBalanceCents) * (annualRate / 12)
	if utils.MajorFromCents(interestCents) > expected*s.interestMultiple() {
		return customError.WrapImplausibleInterest(
			utils.DecimalFromCents(interestCents).String(),
			decimal.NewFromFloat(utils.RoundCents(expected)).String())
	}

	return nil
}

// checkLikelyDuplicate rejects a payment when existing payments on the same
// calendar date sum to the same amount within tolerance. Heuristic, not a
// hard business rule.
func (s *DebtService) checkLikelyDuplicate(ctx context.Context, debtID uuid.UUID, paymentDate time.Time, amountCents int64) error {
	payments, err := s.paymentRepo.ListByDebtID(ctx, debtID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	var sameDayCount int
	var sameDaySum int64
	for _, p := range payments {
		if utils.SameCalendarDay(p.PaymentDate, paymentDate) {
			sameDayCount++
			sameDaySum += p.AmountCents
		}
	}

	if sameDayCount > 0 {
		if diff := sameDaySum - amountCents; diff <= s.amountTolerance() && diff >= -s.amountTolerance() {
			return customError.WrapDuplicatePayment(paymentDate.Format(dateLayout))
		}
	}

	return nil
}

func (s *DebtService) invalidateSummary(ctx context.Context, householdID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, summaryCacheKey(householdID)).Err(); err != nil {
		log.Printf("summary cache invalidation failed for household %s: %v", householdID, err)
	}
}

func summaryCacheKey(householdID uuid.UUID) string {
	return "debt:summary:" + householdID.String()
}

func (s *DebtService) amountTolerance() int64 {
	if s.config != nil && s.config.Business.AmountTolerance > 0 {
		return s.config.Business.AmountTolerance
	}
	return 1
}

func (s *DebtService) interestMultiple() float64 {
	if s.config != nil && s.config.Business.InterestMultiple > 0 {
		return s.config.Business.InterestMultiple
	}
	return 2
}

func (s *DebtService) summaryCacheTTL() time.Duration {
	if s.config != nil && s.config.Business.SummaryCacheTTL > 0 {
		return s.config.Business.SummaryCacheTTL
	}
	return 5 * time.Minute
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
