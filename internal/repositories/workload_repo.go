package repositories

import (
	"context"
	"time"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type WorkloadRepository interface {
	Create(ctx context.Context, a *models.WorkloadAllocation) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkloadAllocation, error)
	Update(ctx context.Context, a *models.WorkloadAllocation) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.WorkloadFilter) ([]*models.WorkloadAllocation, error)
	// Overlapping returns allocations intersecting [from, to]; a nil employee
	// means every employee of the tenant.
	Overlapping(ctx context.Context, tenantID uuid.UUID, employeeID *uuid.UUID, from, to time.Time) ([]*models.WorkloadAllocation, error)
}

type workloadRepo struct {
	db DB
}

func NewWorkloadRepo(db DB) WorkloadRepository {
	return &workloadRepo{db: db}
}

const workloadColumns = `id, tenant_id, employee_id, tender_id, title, start_date, end_date, hours, created_at, updated_at`

func scanAllocation(row pgx.Row) (*models.WorkloadAllocation, error) {
	a := &models.WorkloadAllocation{}
	err := row.Scan(&a.ID, &a.TenantID, &a.EmployeeID, &a.TenderID, &a.Title, &a.StartDate, &a.EndDate, &a.Hours, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func collectAllocations(rows pgx.Rows) ([]*models.WorkloadAllocation, error) {
	defer rows.Close()
	var out []*models.WorkloadAllocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *workloadRepo) Create(ctx context.Context, a *models.WorkloadAllocation) error {
	query := `
		INSERT INTO workload_allocations (id, tenant_id, employee_id, tender_id, title, start_date, end_date, hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, a.ID, a.TenantID, a.EmployeeID, a.TenderID, a.Title, a.StartDate, a.EndDate, a.Hours)
	return mapError(err)
}

func (r *workloadRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkloadAllocation, error) {
	query := `SELECT ` + workloadColumns + ` FROM workload_allocations WHERE tenant_id = $1 AND id = $2`
	return scanAllocation(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *workloadRepo) Update(ctx context.Context, a *models.WorkloadAllocation) error {
	query := `
		UPDATE workload_allocations
		SET employee_id = $1, tender_id = $2, title = $3, start_date = $4, end_date = $5, hours = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	return execOne(ctx, r.db, query, a.EmployeeID, a.TenderID, a.Title, a.StartDate, a.EndDate, a.Hours, a.TenantID, a.ID)
}

func (r *workloadRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM workload_allocations WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *workloadRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.WorkloadFilter) ([]*models.WorkloadAllocation, error) {
	w := newWhere(`SELECT `+workloadColumns+` FROM workload_allocations WHERE tenant_id = $1`, tenantID)
	if filter.EmployeeID != nil {
		w.and("employee_id = $%d", *filter.EmployeeID)
	}
	if filter.From != nil {
		w.and("end_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.and("start_date <= $%d", *filter.To)
	}
	w.page("start_date, created_at", filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, w.query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectAllocations(rows)
}

func (r *workloadRepo) Overlapping(ctx context.Context, tenantID uuid.UUID, employeeID *uuid.UUID, from, to time.Time) ([]*models.WorkloadAllocation, error) {
	return r.List(ctx, tenantID, models.WorkloadFilter{EmployeeID: employeeID, From: &from, To: &to})
}
