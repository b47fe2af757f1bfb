package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrDebtNotFound         = errors.New("debt not found")
	ErrHouseholdMismatch    = errors.New("debt belongs to a different household")
	ErrDebtInactive         = errors.New("debt is not active")
	ErrUnsupportedDebtType  = errors.New("unsupported debt type")
	ErrInsufficientBalance  = errors.New("payment principal exceeds current balance")
	ErrDuplicatePayment     = errors.New("payment looks like a duplicate")
	ErrPaymentOutOfRange    = errors.New("payment date is outside the allowed range")
	ErrAmountMismatch       = errors.New("amount does not match principal plus interest")
	ErrInterestNotAllowed   = errors.New("personal debts cannot have interest payments")
	ErrImplausibleInterest  = errors.New("interest amount is implausibly large")
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
)

// Error codes
const (
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeDebtNotFound        = "DEBT_NOT_FOUND"
	ErrCodeHouseholdMismatch   = "HOUSEHOLD_MISMATCH"
	ErrCodeDebtInactive        = "DEBT_INACTIVE"
	ErrCodeUnsupportedDebtType = "UNSUPPORTED_DEBT_TYPE"
	ErrCodePaymentDateRange    = "PAYMENT_DATE_OUT_OF_RANGE"
	ErrCodeBalanceExceeded     = "PRINCIPAL_EXCEEDS_BALANCE"
	ErrCodeAmountMismatch      = "AMOUNT_MISMATCH"
	ErrCodeInterestNotAllowed  = "INTEREST_NOT_ALLOWED"
	ErrCodeImplausibleInterest = "IMPLAUSIBLE_INTEREST"
	ErrCodeDuplicatePayment    = "DUPLICATE_PAYMENT"
	ErrCodeInvalidAmount       = "INVALID_PAYMENT_AMOUNT"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeCacheError          = "CACHE_ERROR"
)

// ValidationError reports a debt field that violates policy. It is always a
// client error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCodeValidationFailed, e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// BusinessError represents a business rule rejection with a stable code.
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{Code: code, Message: message, Err: err}
}

// Wrap common errors with business context

func WrapDebtNotFound(debtID string) *BusinessError {
	return NewBusinessError(
		ErrCodeDebtNotFound,
		fmt.Sprintf("debt %s not found", debtID),
		ErrDebtNotFound,
	)
}

func WrapDebtInactive(debtID string) *BusinessError {
	return NewBusinessError(
		ErrCodeDebtInactive,
		fmt.Sprintf("debt %s is inactive and cannot accept payments", debtID),
		ErrDebtInactive,
	)
}

func WrapUnsupportedDebtType(debtType string) *BusinessError {
	return NewBusinessError(
		ErrCodeUnsupportedDebtType,
		fmt.Sprintf("debt type %q is not supported", debtType),
		ErrUnsupportedDebtType,
	)
}

func WrapPaymentDateRange(message string) *BusinessError {
	return NewBusinessError(ErrCodePaymentDateRange, message, ErrPaymentOutOfRange)
}

func WrapBalanceExceeded(principal, balance string) *BusinessError {
	return NewBusinessError(
		ErrCodeBalanceExceeded,
		fmt.Sprintf("principal portion %s exceeds current balance %s", principal, balance),
		ErrInsufficientBalance,
	)
}

func WrapAmountMismatch(amount, components string) *BusinessError {
	return NewBusinessError(
		ErrCodeAmountMismatch,
		fmt.Sprintf("amount %s does not equal principal + interest %s within tolerance", amount, components),
		ErrAmountMismatch,
	)
}

func WrapInterestNotAllowed() *BusinessError {
	return NewBusinessError(
		ErrCodeInterestNotAllowed,
		"personal debts cannot have interest payments",
		ErrInterestNotAllowed,
	)
}

func WrapImplausibleInterest(interest, expected string) *BusinessError {
	return NewBusinessError(
		ErrCodeImplausibleInterest,
		fmt.Sprintf("interest %s is more than double the expected monthly amount %s", interest, expected),
		ErrImplausibleInterest,
	)
}

func WrapDuplicatePayment(date string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicatePayment,
		fmt.Sprintf("a payment with the same amount already exists on %s", date),
		ErrDuplicatePayment,
	)
}

func WrapInvalidPaymentAmount(message string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidAmount, message, ErrInvalidPaymentAmount)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(ErrCodeDatabaseError, "database operation failed", err)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(ErrCodeCacheError, "cache operation failed", err)
}
