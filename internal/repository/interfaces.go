package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/duitku/debt-engine/internal/domain"
)

// DebtRepository defines the interface for debt data operations
type DebtRepository interface {
	// Create inserts a new debt
	Create(ctx context.Context, debt *domain.Debt) error

	// GetByID retrieves a debt by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error)

	// List retrieves a household's debts, optionally filtered
	List(ctx context.Context, householdID uuid.UUID, filter domain.DebtFilter) ([]*domain.Debt, error)

	// ListActive retrieves every active debt across households (scheduler use)
	ListActive(ctx context.Context) ([]*domain.Debt, error)

	// Update persists mutable debt fields
	Update(ctx context.Context, debt *domain.Debt) error

	// Delete removes a debt and its payments
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create inserts a payment and decrements the debt balance in one
	// transaction; returns ErrInsufficientBalance if the guarded update
	// matches no row.
	Create(ctx context.Context, payment *domain.DebtPayment) error

	// ListByDebtID retrieves all payments for a debt ordered by payment date
	ListByDebtID(ctx context.Context, debtID uuid.UUID) ([]*domain.DebtPayment, error)
}
