package repositories

import (
	"context"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	// CreateWithDefaults stores the tenant together with its initial stages,
	// the owner role and the owner employee in one transaction.
	CreateWithDefaults(ctx context.Context, tenant *models.Tenant, stages []*models.TenderStage, owner *models.Role, employee *models.Employee) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type tenantRepo struct {
	db DB
}

func NewTenantRepo(db DB) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, slug, inn, status, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.INN, &tenant.Status, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return tenant, nil
}

func insertTenant(ctx context.Context, q querier, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug, inn, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := q.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Slug, tenant.INN, tenant.Status)
	return mapError(err)
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	return insertTenant(ctx, r.db, tenant)
}

func (r *tenantRepo) CreateWithDefaults(ctx context.Context, tenant *models.Tenant, stages []*models.TenderStage, owner *models.Role, employee *models.Employee) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertTenant(ctx, tx, tenant); err != nil {
			return err
		}
		for _, stage := range stages {
			if err := insertStage(ctx, tx, stage); err != nil {
				return err
			}
		}
		if err := insertRole(ctx, tx, owner); err != nil {
			return err
		}
		return insertEmployee(ctx, tx, employee)
	})
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(r.db.QueryRow(ctx, query, id))
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`
	return scanTenant(r.db.QueryRow(ctx, query, slug))
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, slug = $2, inn = $3, status = $4, updated_at = NOW()
		WHERE id = $5
	`
	return execOne(ctx, r.db, query, tenant.Name, tenant.Slug, tenant.INN, tenant.Status, tenant.ID)
}

func (r *tenantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM tenants WHERE id = $1`, id)
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

// ListIDs returns every active tenant; background jobs iterate over it.
func (r *tenantRepo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM tenants WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
