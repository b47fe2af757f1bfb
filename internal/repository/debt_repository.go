package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/duitku/debt-engine/internal/domain"
)

type debtRepository struct {
	db *sqlx.DB
}

func NewDebtRepository(db *sqlx.DB) DebtRepository {
	return &debtRepository{db: db}
}

func (r *debtRepository) Create(ctx context.Context, debt *domain.Debt) error {
	query := `
		INSERT INTO debts (id, household_id, debt_type, name, creditor, principal_cents, current_balance_cents,
			currency, interest_rate, margin_rate, start_date, maturity_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		debt.ID,
		debt.HouseholdID,
		debt.Type,
		debt.Name,
		debt.Creditor,
		debt.PrincipalCents,
		debt.CurrentBalanceCents,
		debt.Currency,
		debt.InterestRate,
		debt.MarginRate,
		debt.StartDate,
		debt.MaturityDate,
		debt.IsActive,
		debt.CreatedAt,
		debt.UpdatedAt,
	)

	return err
}

func (r *debtRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error) {
	query := `
		SELECT id, household_id, debt_type, name, creditor, principal_cents, current_balance_cents,
			currency, interest_rate, margin_rate, start_date, maturity_date, is_active, created_at, updated_at
		FROM debts
		WHERE id = $1
	`

	var debt domain.Debt
	if err := r.db.GetContext(ctx, &debt, query, id); err != nil {
		return nil, err
	}

	return &debt, nil
}

func (r *debtRepository) List(ctx context.Context, householdID uuid.UUID, filter domain.DebtFilter) ([]*domain.Debt, error) {
	query := `
		SELECT id, household_id, debt_type, name, creditor, principal_cents, current_balance_cents,
			currency, interest_rate, margin_rate, start_date, maturity_date, is_active, created_at, updated_at
		FROM debts
		WHERE household_id = $1
	`
	args := []interface{}{householdID}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		query += fmt.Sprintf(" AND debt_type = $%d", len(args))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR creditor ILIKE $%d)", len(args), len(args))
	}

	query += " ORDER BY created_at DESC"

	var debts []*domain.Debt
	if err := r.db.SelectContext(ctx, &debts, query, args...); err != nil {
		return nil, err
	}

	return debts, nil
}

func (r *debtRepository) ListActive(ctx context.Context) ([]*domain.Debt, error) {
	query := `
		SELECT id, household_id, debt_type, name, creditor, principal_cents, current_balance_cents,
			currency, interest_rate, margin_rate, start_date, maturity_date, is_active, created_at, updated_at
		FROM debts
		WHERE is_active = true
		ORDER BY created_at
	`

	var debts []*domain.Debt
	if err := r.db.SelectContext(ctx, &debts, query); err != nil {
		return nil, err
	}

	return debts, nil
}

func (r *debtRepository) Update(ctx context.Context, debt *domain.Debt) error {
	query := `
		UPDATE debts
		SET debt_type = $2, name = $3, creditor = $4, interest_rate = $5, margin_rate = $6,
			maturity_date = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		debt.ID,
		debt.Type,
		debt.Name,
		debt.Creditor,
		debt.InterestRate,
		debt.MarginRate,
		debt.MaturityDate,
		debt.IsActive,
		time.Now().UTC(),
	)

	return err
}

func (r *debtRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM debt_payments WHERE debt_id = $1`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM debts WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}
