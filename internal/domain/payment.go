package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtPayment is one payment event against a debt. InterestCents holds the
// interest portion for conventional debts and the margin portion for Islamic
// financing. Payments are immutable once recorded.
type DebtPayment struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	DebtID         uuid.UUID  `json:"debt_id" db:"debt_id"`
	AmountCents    int64      `json:"amount_cents" db:"amount_cents"`
	PrincipalCents int64      `json:"principal_cents" db:"principal_cents"`
	InterestCents  int64      `json:"interest_cents" db:"interest_cents"`
	PaymentDate    time.Time  `json:"payment_date" db:"payment_date"`
	TransactionID  *uuid.UUID `json:"transaction_id,omitempty" db:"transaction_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// CreateDebtPaymentRequest carries amounts in major units; the service
// converts them to cents at the boundary.
type CreateDebtPaymentRequest struct {
	Amount          decimal.Decimal  `json:"amount" validate:"required"`
	PrincipalAmount decimal.Decimal  `json:"principal_amount" validate:"required"`
	InterestAmount  *decimal.Decimal `json:"interest_amount,omitempty"`
	PaymentDate     string           `json:"payment_date" validate:"required,datetime=2006-01-02"`
	TransactionID   *uuid.UUID       `json:"transaction_id,omitempty"`
}
