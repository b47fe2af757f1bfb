package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DebtType string

const (
	DebtTypePersonal     DebtType = "PERSONAL"
	DebtTypeConventional DebtType = "CONVENTIONAL"
	DebtTypeIslamic      DebtType = "ISLAMIC"
)

// Debt represents one liability owed by a household. Monetary amounts are
// stored in integer minor units (cents); rates are annual fractions
// (0.12 = 12%).
type Debt struct {
	ID                  uuid.UUID           `json:"id" db:"id"`
	HouseholdID         uuid.UUID           `json:"household_id" db:"household_id"`
	Type                DebtType            `json:"type" db:"debt_type"`
	Name                string              `json:"name" db:"name"`
	Creditor            string              `json:"creditor" db:"creditor"`
	PrincipalCents      int64               `json:"principal_cents" db:"principal_cents"`
	CurrentBalanceCents int64               `json:"current_balance_cents" db:"current_balance_cents"`
	Currency            string              `json:"currency" db:"currency"`
	InterestRate        decimal.NullDecimal `json:"interest_rate" db:"interest_rate"`
	MarginRate          decimal.NullDecimal `json:"margin_rate" db:"margin_rate"`
	StartDate           time.Time           `json:"start_date" db:"start_date"`
	MaturityDate        *time.Time          `json:"maturity_date" db:"maturity_date"`
	IsActive            bool                `json:"is_active" db:"is_active"`
	CreatedAt           time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateDebtRequest struct {
	Type            DebtType         `json:"type" validate:"required,oneof=PERSONAL CONVENTIONAL ISLAMIC"`
	Name            string           `json:"name" validate:"required,max=120"`
	Creditor        string           `json:"creditor" validate:"required,max=120"`
	PrincipalAmount decimal.Decimal  `json:"principal_amount" validate:"required"`
	Currency        string           `json:"currency" validate:"required,len=3"`
	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty"`
	MarginRate      *decimal.Decimal `json:"margin_rate,omitempty"`
	StartDate       string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	MaturityDate    *string          `json:"maturity_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateDebtRequest struct {
	Type         *DebtType        `json:"type,omitempty" validate:"omitempty,oneof=PERSONAL CONVENTIONAL ISLAMIC"`
	Name         *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Creditor     *string          `json:"creditor,omitempty" validate:"omitempty,max=120"`
	InterestRate *decimal.Decimal `json:"interest_rate,omitempty"`
	MarginRate   *decimal.Decimal `json:"margin_rate,omitempty"`
	MaturityDate *string          `json:"maturity_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsActive     *bool            `json:"is_active,omitempty"`
}

// DebtFilter narrows List results. Search matches name or creditor.
type DebtFilter struct {
	Type     *DebtType
	IsActive *bool
	Search   string
}
