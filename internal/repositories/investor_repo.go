package repositories

import (
	"context"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InvestorRepository interface {
	Create(ctx context.Context, inv *models.Investor) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Investor, error)
	Update(ctx context.Context, inv *models.Investor) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Investor, error)

	CreateInvestment(ctx context.Context, i *models.Investment) error
	GetInvestment(ctx context.Context, tenantID, id uuid.UUID) (*models.Investment, error)
	UpdateInvestment(ctx context.Context, i *models.Investment) error
	DeleteInvestment(ctx context.Context, tenantID, id uuid.UUID) error
	ListInvestments(ctx context.Context, tenantID uuid.UUID, investorID *uuid.UUID) ([]*models.Investment, error)
}

type investorRepo struct {
	db DB
}

func NewInvestorRepo(db DB) InvestorRepository {
	return &investorRepo{db: db}
}

const investorColumns = `id, tenant_id, name, kind, email, phone, notes, created_at, updated_at`

func scanInvestor(row pgx.Row) (*models.Investor, error) {
	i := &models.Investor{}
	err := row.Scan(&i.ID, &i.TenantID, &i.Name, &i.Kind, &i.Email, &i.Phone, &i.Notes, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return i, nil
}

func (r *investorRepo) Create(ctx context.Context, i *models.Investor) error {
	query := `
		INSERT INTO investors (id, tenant_id, name, kind, email, phone, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, i.ID, i.TenantID, i.Name, i.Kind, i.Email, i.Phone, i.Notes)
	return mapError(err)
}

func (r *investorRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Investor, error) {
	query := `SELECT ` + investorColumns + ` FROM investors WHERE tenant_id = $1 AND id = $2`
	return scanInvestor(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *investorRepo) Update(ctx context.Context, i *models.Investor) error {
	query := `
		UPDATE investors
		SET name = $1, kind = $2, email = $3, phone = $4, notes = $5, updated_at = NOW()
		WHERE tenant_id = $6 AND id = $7
	`
	return execOne(ctx, r.db, query, i.Name, i.Kind, i.Email, i.Phone, i.Notes, i.TenantID, i.ID)
}

func (r *investorRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM investors WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *investorRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Investor, error) {
	query := `SELECT ` + investorColumns + ` FROM investors WHERE tenant_id = $1 ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var investors []*models.Investor
	for rows.Next() {
		i, err := scanInvestor(rows)
		if err != nil {
			return nil, err
		}
		investors = append(investors, i)
	}
	return investors, rows.Err()
}

const investmentColumns = `id, tenant_id, investor_id, amount, rate_percent, start_date, term_months, payout_formula, status, created_at, updated_at`

func scanInvestment(row pgx.Row) (*models.Investment, error) {
	i := &models.Investment{}
	err := row.Scan(&i.ID, &i.TenantID, &i.InvestorID, &i.Amount, &i.RatePercent, &i.StartDate, &i.TermMonths,
		&i.PayoutFormula, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return i, nil
}

func (r *investorRepo) CreateInvestment(ctx context.Context, i *models.Investment) error {
	query := `
		INSERT INTO investments (id, tenant_id, investor_id, amount, rate_percent, start_date, term_months, payout_formula, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, i.ID, i.TenantID, i.InvestorID, i.Amount, i.RatePercent, i.StartDate, i.TermMonths, i.PayoutFormula, i.Status)
	return mapError(err)
}

func (r *investorRepo) GetInvestment(ctx context.Context, tenantID, id uuid.UUID) (*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE tenant_id = $1 AND id = $2`
	return scanInvestment(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *investorRepo) UpdateInvestment(ctx context.Context, i *models.Investment) error {
	query := `
		UPDATE investments
		SET amount = $1, rate_percent = $2, start_date = $3, term_months = $4, payout_formula = $5, status = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	return execOne(ctx, r.db, query, i.Amount, i.RatePercent, i.StartDate, i.TermMonths, i.PayoutFormula, i.Status, i.TenantID, i.ID)
}

func (r *investorRepo) DeleteInvestment(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM investments WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *investorRepo) ListInvestments(ctx context.Context, tenantID uuid.UUID, investorID *uuid.UUID) ([]*models.Investment, error) {
	w := newWhere(`SELECT `+investmentColumns+` FROM investments WHERE tenant_id = $1`, tenantID)
	if investorID != nil {
		w.and("investor_id = $%d", *investorID)
	}
	w.page("start_date DESC", 0, 0)

	rows, err := r.db.Query(ctx, w.query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Investment
	for rows.Next() {
		i, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
