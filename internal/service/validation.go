package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/duitku/debt-engine/internal/domain"
	customError "github.com/duitku/debt-engine/pkg/errors"
)

// Validation policy. The three debt types are kept side by side in one table
// so the rules stay auditable.
type debtTypePolicy struct {
	requiresInterest bool
	requiresMargin   bool
	requiresMaturity bool
	rateMin          decimal.Decimal
	rateMax          decimal.Decimal
}

var debtTypePolicies = map[domain.DebtType]debtTypePolicy{
	domain.DebtTypePersonal: {},
	domain.DebtTypeConventional: {
		requiresInterest: true,
		requiresMaturity: true,
		rateMin:          decimal.NewFromFloat(0.001),
		rateMax:          decimal.NewFromFloat(0.5),
	},
	domain.DebtTypeIslamic: {
		requiresMargin:   true,
		requiresMaturity: true,
		rateMin:          decimal.NewFromFloat(0.001),
		rateMax:          decimal.NewFromFloat(0.3),
	},
}

// Principal ceilings in minor units, per supported currency.
var principalCeilingCents = map[string]int64{
	"IDR": 999_999_999_999 * 100,
	"USD": 999_999_999 * 100,
	"EUR": 999_999_999 * 100,
	"SGD": 999_999_999 * 100,
	"MYR": 999_999_999 * 100,
	"THB": 999_999_999 * 100,
}

const minPrincipalCents = 100 // 1.00 in major units

var (
	earliestStartDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	maxTermYears      = 50
)

// ValidateDebtFields checks a debt candidate against the type-specific
// policy. Called on create and whenever an update touches type-relevant
// fields. Returns a *ValidationError on the first violation.
func ValidateDebtFields(debt *domain.Debt) error {
	policy, ok := debtTypePolicies[debt.Type]
	if !ok {
		return customError.WrapUnsupportedDebtType(string(debt.Type))
	}

	if debt.StartDate.Before(earliestStartDate) {
		return customError.NewValidationError("start_date", "must not precede 1900-01-01")
	}

	if debt.MaturityDate != nil {
		if !debt.MaturityDate.After(debt.StartDate) {
			return customError.NewValidationError("maturity_date", "must be after start date")
		}
		if debt.MaturityDate.After(debt.StartDate.AddDate(maxTermYears, 0, 0)) {
			return customError.NewValidationError("maturity_date", "term must not exceed %d years", maxTermYears)
		}
	} else if policy.requiresMaturity {
		return customError.NewValidationError("maturity_date", "required for %s debts", debt.Type)
	}

	if err := validateRates(debt, policy); err != nil {
		return err
	}

	ceiling, ok := principalCeilingCents[debt.Currency]
	if !ok {
		return customError.NewValidationError("currency", "%q is not a supported currency", debt.Currency)
	}

	if debt.PrincipalCents < minPrincipalCents {
		return customError.NewValidationError("principal_amount", "must be at least 1.00")
	}
	if debt.PrincipalCents > ceiling {
		return customError.NewValidationError("principal_amount", "exceeds the maximum for %s", debt.Currency)
	}

	return nil
}

func validateRates(debt *domain.Debt, policy debtTypePolicy) error {
	if debt.InterestRate.Valid && debt.MarginRate.Valid {
		return customError.NewValidationError("interest_rate", "interest rate and margin rate are mutually exclusive")
	}

	if policy.requiresInterest {
		if !debt.InterestRate.Valid {
			return customError.NewValidationError("interest_rate", "required for %s debts", debt.Type)
		}
		if outOfBounds(debt.InterestRate.Decimal, policy) {
			return customError.NewValidationError("interest_rate", "must be between %s and %s",
				policy.rateMin.String(), policy.rateMax.String())
		}
	} else if debt.InterestRate.Valid {
		return customError.NewValidationError("interest_rate", "not allowed for %s debts", debt.Type)
	}

	if policy.requiresMargin {
		if !debt.MarginRate.Valid {
			return customError.NewValidationError("margin_rate", "required for %s debts", debt.Type)
		}
		if outOfBounds(debt.MarginRate.Decimal, policy) {
			return customError.NewValidationError("margin_rate", "must be between %s and %s",
				policy.rateMin.String(), policy.rateMax.String())
		}
	} else if debt.MarginRate.Valid {
		return customError.NewValidationError("margin_rate", "not allowed for %s debts", debt.Type)
	}

	return nil
}

func outOfBounds(rate decimal.Decimal, policy debtTypePolicy) bool {
	return rate.LessThan(policy.rateMin) || rate.GreaterThan(policy.rateMax)
}
