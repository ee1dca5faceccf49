package repositories

import (
	"context"
	"time"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type KudirRepository interface {
	Create(ctx context.Context, e *models.KudirEntry) error
	// CreateBatch inserts all entries in one transaction.
	CreateBatch(ctx context.Context, entries []*models.KudirEntry) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.KudirEntry, error)
	Update(ctx context.Context, e *models.KudirEntry) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.KudirFilter) ([]*models.KudirEntry, error)
	QuarterTotals(ctx context.Context, tenantID uuid.UUID, year int) ([]models.KudirQuarter, error)
	ExpenseByCategory(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.CategoryTotal, error)
}

type kudirRepo struct {
	db DB
}

func NewKudirRepo(db DB) KudirRepository {
	return &kudirRepo{db: db}
}

const kudirColumns = `id, tenant_id, entry_date, document_ref, description, income, expense, category, bank_transaction_id, created_at, updated_at`

func scanKudir(row pgx.Row) (*models.KudirEntry, error) {
	e := &models.KudirEntry{}
	err := row.Scan(&e.ID, &e.TenantID, &e.EntryDate, &e.DocumentRef, &e.Description, &e.Income, &e.Expense, &e.Category,
		&e.BankTransactionID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

const insertKudirSQL = `
	INSERT INTO kudir_entries (id, tenant_id, entry_date, document_ref, description, income, expense, category, bank_transaction_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
`

func insertKudir(ctx context.Context, q querier, e *models.KudirEntry) error {
	_, err := q.Exec(ctx, insertKudirSQL, e.ID, e.TenantID, e.EntryDate, e.DocumentRef, e.Description, e.Income, e.Expense,
		e.Category, e.BankTransactionID)
	return mapError(err)
}

func (r *kudirRepo) Create(ctx context.Context, e *models.KudirEntry) error {
	return insertKudir(ctx, r.db, e)
}

func (r *kudirRepo) CreateBatch(ctx context.Context, entries []*models.KudirEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, e := range entries {
			if err := insertKudir(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *kudirRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.KudirEntry, error) {
	query := `SELECT ` + kudirColumns + ` FROM kudir_entries WHERE tenant_id = $1 AND id = $2`
	return scanKudir(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *kudirRepo) Update(ctx context.Context, e *models.KudirEntry) error {
	query := `
		UPDATE kudir_entries
		SET entry_date = $1, document_ref = $2, description = $3, income = $4, expense = $5, category = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	return execOne(ctx, r.db, query, e.EntryDate, e.DocumentRef, e.Description, e.Income, e.Expense, e.Category, e.TenantID, e.ID)
}

func (r *kudirRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM kudir_entries WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *kudirRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.KudirFilter) ([]*models.KudirEntry, error) {
	w := newWhere(`SELECT `+kudirColumns+` FROM kudir_entries WHERE tenant_id = $1`, tenantID)
	if filter.From != nil {
		w.and("entry_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.and("entry_date <= $%d", *filter.To)
	}
	w.page("entry_date, created_at", filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, w.query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.KudirEntry
	for rows.Next() {
		e, err := scanKudir(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *kudirRepo) QuarterTotals(ctx context.Context, tenantID uuid.UUID, year int) ([]models.KudirQuarter, error) {
	query := `
		SELECT EXTRACT(QUARTER FROM entry_date)::INT AS quarter,
			COALESCE(SUM(income), 0)::BIGINT,
			COALESCE(SUM(expense), 0)::BIGINT
		FROM kudir_entries
		WHERE tenant_id = $1 AND EXTRACT(YEAR FROM entry_date)::INT = $2
		GROUP BY quarter
		ORDER BY quarter
	`
	rows, err := r.db.Query(ctx, query, tenantID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quarters []models.KudirQuarter
	for rows.Next() {
		var q models.KudirQuarter
		if err := rows.Scan(&q.Quarter, &q.Income, &q.Expense); err != nil {
			return nil, err
		}
		quarters = append(quarters, q)
	}
	return quarters, rows.Err()
}

func (r *kudirRepo) ExpenseByCategory(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.CategoryTotal, error) {
	query := `
		SELECT COALESCE(NULLIF(category, ''), 'other') AS cat, SUM(expense)::BIGINT AS total
		FROM kudir_entries
		WHERE tenant_id = $1 AND expense > 0 AND entry_date BETWEEN $2 AND $3
		GROUP BY cat
		ORDER BY total DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []models.CategoryTotal
	for rows.Next() {
		var c models.CategoryTotal
		if err := rows.Scan(&c.Category, &c.Amount); err != nil {
			return nil, err
		}
		totals = append(totals, c)
	}
	return totals, rows.Err()
}
