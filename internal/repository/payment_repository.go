package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/duitku/debt-engine/internal/domain"
	customError "github.com/duitku/debt-engine/pkg/errors"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts the payment and applies the principal to the debt balance in
// one transaction. The WHERE guard on current_balance_cents rejects a write
// that would drive the balance negative, which also closes the race between
// two concurrent payments validated against the same stale balance.
func (r *paymentRepository) Create(ctx context.Context, payment *domain.DebtPayment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE debts
		SET current_balance_cents = current_balance_cents - $2, updated_at = now()
		WHERE id = $1 AND current_balance_cents >= $2
	`, payment.DebtID, payment.PrincipalCents)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return customError.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO debt_payments (id, debt_id, amount_cents, principal_cents, interest_cents,
			payment_date, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		payment.ID,
		payment.DebtID,
		payment.AmountCents,
		payment.PrincipalCents,
		payment.InterestCents,
		payment.PaymentDate,
		payment.TransactionID,
		payment.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *paymentRepository) ListByDebtID(ctx context.Context, debtID uuid.UUID) ([]*domain.DebtPayment, error) {
	query := `
		SELECT id, debt_id, amount_cents, principal_cents, interest_cents, payment_date, transaction_id, created_at
		FROM debt_payments
		WHERE debt_id = $1
		ORDER BY payment_date, created_at
	`

	var payments []*domain.DebtPayment
	if err := r.db.SelectContext(ctx, &payments, query, debtID); err != nil {
		return nil, err
	}

	return payments, nil
}
