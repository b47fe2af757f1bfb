package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduleItem is one row of a computed payment schedule. Negative payment
// numbers are historical (actual) payments, positive numbers are projected
// future installments. Amounts are in major units, rounded to cents.
type ScheduleItem struct {
	PaymentNumber     int        `json:"payment_number"`
	DueDate           time.Time  `json:"due_date"`
	PaymentAmount     float64    `json:"payment_amount"`
	PrincipalAmount   float64    `json:"principal_amount"`
	InterestAmount    float64    `json:"interest_amount"`
	RemainingBalance  float64    `json:"remaining_balance"`
	IsPaid            bool       `json:"is_paid"`
	ActualPaymentDate *time.Time `json:"actual_payment_date,omitempty"`
}

// ScheduleResult is the full schedule for a debt: historical rows first,
// then projected rows. It is derived on demand and never persisted.
type ScheduleResult struct {
	DebtID           uuid.UUID      `json:"debt_id"`
	DebtType         DebtType       `json:"debt_type"`
	Currency         string         `json:"currency"`
	Items            []ScheduleItem `json:"items"`
	MonthlyPayment   float64        `json:"monthly_payment"`
	TotalPrincipal   float64        `json:"total_principal"`
	TotalInterest    float64        `json:"total_interest"`
	TotalAmount      float64        `json:"total_amount"`
	RemainingBalance float64        `json:"remaining_balance"`
	NextPaymentDue   *time.Time     `json:"next_payment_due,omitempty"`
	PayoffDate       *time.Time     `json:"payoff_date,omitempty"`
}

type TypeBreakdown struct {
	Count        int             `json:"count"`
	TotalBalance decimal.Decimal `json:"total_balance"`
}

type UpcomingPayments struct {
	DueToday     int `json:"due_today"`
	DueThisWeek  int `json:"due_this_week"`
	DueThisMonth int `json:"due_this_month"`
	Overdue      int `json:"overdue"`
}

// DebtSummary rolls up a household's active debts.
type DebtSummary struct {
	HouseholdID     uuid.UUID                  `json:"household_id"`
	ActiveDebts     int                        `json:"active_debts"`
	TotalBalance    decimal.Decimal            `json:"total_balance"`
	ByType          map[DebtType]TypeBreakdown `json:"by_type"`
	Upcoming        UpcomingPayments           `json:"upcoming_payments"`
	ProjectedPayoff *time.Time                 `json:"projected_payoff,omitempty"`
}
