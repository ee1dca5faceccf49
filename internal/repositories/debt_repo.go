package repositories

import (
	"context"
	"errors"
	"fmt"

	"bizdesk/internal/common"
	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type DebtRepository interface {
	Create(ctx context.Context, debt *models.Debt) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Debt, error)
	Update(ctx context.Context, debt *models.Debt) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.DebtFilter) ([]*models.Debt, error)
	// ListOutstanding returns debts that are not fully paid.
	ListOutstanding(ctx context.Context, tenantID uuid.UUID) ([]*models.Debt, error)
	// RecordPayment stores the payment and bumps amount_paid and status in one
	// transaction. It fails with common.ErrConflict when the payment would
	// exceed the debt amount.
	RecordPayment(ctx context.Context, payment *models.DebtPayment) (*models.Debt, error)
	Payments(ctx context.Context, tenantID, debtID uuid.UUID) ([]*models.DebtPayment, error)
}

type debtRepo struct {
	db DB
}

func NewDebtRepo(db DB) DebtRepository {
	return &debtRepo{db: db}
}

const debtColumns = `id, tenant_id, direction, counterparty, description, amount, amount_paid, currency, issued_on, due_on, status, created_at, updated_at`

func scanDebt(row pgx.Row) (*models.Debt, error) {
	d := &models.Debt{}
	err := row.Scan(&d.ID, &d.TenantID, &d.Direction, &d.Counterparty, &d.Description, &d.Amount, &d.AmountPaid,
		&d.Currency, &d.IssuedOn, &d.DueOn, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func collectDebts(rows pgx.Rows) ([]*models.Debt, error) {
	defer rows.Close()
	var debts []*models.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

func (r *debtRepo) Create(ctx context.Context, d *models.Debt) error {
	query := `
		INSERT INTO debts (id, tenant_id, direction, counterparty, description, amount, amount_paid, currency, issued_on, due_on, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, d.ID, d.TenantID, d.Direction, d.Counterparty, d.Description, d.Amount, d.AmountPaid,
		d.Currency, d.IssuedOn, d.DueOn, d.Status)
	return mapError(err)
}

func (r *debtRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE tenant_id = $1 AND id = $2`
	return scanDebt(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *debtRepo) Update(ctx context.Context, d *models.Debt) error {
	query := `
		UPDATE debts
		SET direction = $1, counterparty = $2, description = $3, amount = $4, currency = $5,
			issued_on = $6, due_on = $7, status = $8, updated_at = NOW()
		WHERE tenant_id = $9 AND id = $10
	`
	return execOne(ctx, r.db, query, d.Direction, d.Counterparty, d.Description, d.Amount, d.Currency,
		d.IssuedOn, d.DueOn, d.Status, d.TenantID, d.ID)
}

func (r *debtRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM debts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *debtRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.DebtFilter) ([]*models.Debt, error) {
	w := newWhere(`SELECT `+debtColumns+` FROM debts WHERE tenant_id = $1`, tenantID)
	if filter.Direction != "" {
		w.and("direction = $%d", filter.Direction)
	}
	if filter.Status != "" {
		w.and("status = $%d", filter.Status)
	}
	w.page("COALESCE(due_on, issued_on), created_at", filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, w.query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectDebts(rows)
}

func (r *debtRepo) ListOutstanding(ctx context.Context, tenantID uuid.UUID) ([]*models.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE tenant_id = $1 AND status <> 'paid' ORDER BY due_on NULLS LAST`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	return collectDebts(rows)
}

func (r *debtRepo) RecordPayment(ctx context.Context, p *models.DebtPayment) (*models.Debt, error) {
	var debt *models.Debt
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE debts
			SET amount_paid = amount_paid + $1,
				status = CASE
					WHEN amount_paid + $1 >= amount THEN 'paid'
					WHEN amount_paid + $1 > 0 THEN 'partially_paid'
					ELSE 'unpaid'
				END,
				updated_at = NOW()
			WHERE tenant_id = $2 AND id = $3 AND amount_paid + $1 <= amount
			RETURNING ` + debtColumns
		d, err := scanDebt(tx.QueryRow(ctx, query, p.Amount, p.TenantID, p.DebtID))
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: payment exceeds outstanding amount", common.ErrConflict)
		}
		if err != nil {
			return err
		}
		debt = d

		_, err = tx.Exec(ctx, `
			INSERT INTO debt_payments (id, tenant_id, debt_id, amount, paid_on, note, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`, p.ID, p.TenantID, p.DebtID, p.Amount, p.PaidOn, p.Note)
		return mapError(err)
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

func (r *debtRepo) Payments(ctx context.Context, tenantID, debtID uuid.UUID) ([]*models.DebtPayment, error) {
	query := `
		SELECT id, tenant_id, debt_id, amount, paid_on, note, created_at
		FROM debt_payments
		WHERE tenant_id = $1 AND debt_id = $2
		ORDER BY paid_on, created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, debtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.DebtPayment
	for rows.Next() {
		p := &models.DebtPayment{}
		if err := rows.Scan(&p.ID, &p.TenantID, &p.DebtID, &p.Amount, &p.PaidOn, &p.Note, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
