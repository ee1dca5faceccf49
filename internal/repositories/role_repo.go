package repositories

import (
	"context"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Role, error)
	GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Role, error)
	// GetForUser returns the role of the employee linked to the user.
	GetForUser(ctx context.Context, tenantID, userID uuid.UUID) (*models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Role, error)
}

type roleRepo struct {
	db DB
}

func NewRoleRepo(db DB) RoleRepository {
	return &roleRepo{db: db}
}

func scanRole(row pgx.Row) (*models.Role, error) {
	role := &models.Role{}
	err := row.Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.Permissions, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return role, nil
}

func insertRole(ctx context.Context, q querier, role *models.Role) error {
	query := `
		INSERT INTO roles (id, tenant_id, name, description, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := q.Exec(ctx, query, role.ID, role.TenantID, role.Name, role.Description, role.Permissions)
	return mapError(err)
}

func (r *roleRepo) Create(ctx context.Context, role *models.Role) error {
	return insertRole(ctx, r.db, role)
}

func (r *roleRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Role, error) {
	query := `
		SELECT id, tenant_id, name, description, permissions, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1 AND id = $2
	`
	return scanRole(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *roleRepo) GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Role, error) {
	query := `
		SELECT id, tenant_id, name, description, permissions, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1 AND name = $2
	`
	return scanRole(r.db.QueryRow(ctx, query, tenantID, name))
}

func (r *roleRepo) GetForUser(ctx context.Context, tenantID, userID uuid.UUID) (*models.Role, error) {
	query := `
		SELECT r.id, r.tenant_id, r.name, r.description, r.permissions, r.created_at, r.updated_at
		FROM roles r
		JOIN employees e ON e.role_id = r.id AND e.tenant_id = r.tenant_id
		WHERE r.tenant_id = $1 AND e.user_id = $2 AND e.status = 'active'
	`
	return scanRole(r.db.QueryRow(ctx, query, tenantID, userID))
}

func (r *roleRepo) Update(ctx context.Context, role *models.Role) error {
	query := `
		UPDATE roles
		SET name = $1, description = $2, permissions = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5
	`
	return execOne(ctx, r.db, query, role.Name, role.Description, role.Permissions, role.TenantID, role.ID)
}

func (r *roleRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM roles WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *roleRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Role, error) {
	query := `
		SELECT id, tenant_id, name, description, permissions, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
