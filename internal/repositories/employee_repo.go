package repositories

import (
	"context"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Employee, error)
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Employee, error)
	// TenantIDForUser resolves the tenant a signed-in user belongs to.
	TenantIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type employeeRepo struct {
	db DB
}

func NewEmployeeRepo(db DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

const employeeColumns = `id, tenant_id, role_id, user_id, full_name, email, position, weekly_capacity_hours, hourly_rate, status, created_at, updated_at`

func scanEmployee(row pgx.Row) (*models.Employee, error) {
	e := &models.Employee{}
	err := row.Scan(&e.ID, &e.TenantID, &e.RoleID, &e.UserID, &e.FullName, &e.Email, &e.Position,
		&e.WeeklyCapacityHours, &e.HourlyRate, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

func insertEmployee(ctx context.Context, q querier, e *models.Employee) error {
	query := `
		INSERT INTO employees (id, tenant_id, role_id, user_id, full_name, email, position, weekly_capacity_hours, hourly_rate, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := q.Exec(ctx, query, e.ID, e.TenantID, e.RoleID, e.UserID, e.FullName, e.Email, e.Position,
		e.WeeklyCapacityHours, e.HourlyRate, e.Status)
	return mapError(err)
}

func (r *employeeRepo) Create(ctx context.Context, employee *models.Employee) error {
	return insertEmployee(ctx, r.db, employee)
}

func (r *employeeRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE tenant_id = $1 AND id = $2`
	return scanEmployee(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *employeeRepo) Update(ctx context.Context, e *models.Employee) error {
	query := `
		UPDATE employees
		SET role_id = $1, user_id = $2, full_name = $3, email = $4, position = $5,
			weekly_capacity_hours = $6, hourly_rate = $7, status = $8, updated_at = NOW()
		WHERE tenant_id = $9 AND id = $10
	`
	return execOne(ctx, r.db, query, e.RoleID, e.UserID, e.FullName, e.Email, e.Position,
		e.WeeklyCapacityHours, e.HourlyRate, e.Status, e.TenantID, e.ID)
}

func (r *employeeRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM employees WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *employeeRepo) List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Employee, error) {
	w := newWhere(`SELECT `+employeeColumns+` FROM employees WHERE tenant_id = $1`, tenantID)
	if status != "" {
		w.and("status = $%d", status)
	}
	w.page("full_name", limit, offset)

	rows, err := r.db.Query(ctx, w.query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *employeeRepo) TenantIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var tenantID uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT tenant_id FROM employees WHERE user_id = $1 AND status = 'active'`, userID).Scan(&tenantID)
	if err != nil {
		return uuid.Nil, mapError(err)
	}
	return tenantID, nil
}
