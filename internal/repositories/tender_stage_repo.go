package repositories

import (
	"context"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenderStageRepository interface {
	Create(ctx context.Context, stage *models.TenderStage) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.TenderStage, error)
	Update(ctx context.Context, stage *models.TenderStage) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID) ([]*models.TenderStage, error)
	CountTenders(ctx context.Context, tenantID, stageID uuid.UUID) (int, error)
}

type tenderStageRepo struct {
	db DB
}

func NewTenderStageRepo(db DB) TenderStageRepository {
	return &tenderStageRepo{db: db}
}

const stageColumns = `id, tenant_id, name, position, kind, stale_after_days, created_at, updated_at`

func scanStage(row pgx.Row) (*models.TenderStage, error) {
	s := &models.TenderStage{}
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Position, &s.Kind, &s.StaleAfterDays, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func insertStage(ctx context.Context, q querier, s *models.TenderStage) error {
	query := `
		INSERT INTO tender_stages (id, tenant_id, name, position, kind, stale_after_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := q.Exec(ctx, query, s.ID, s.TenantID, s.Name, s.Position, s.Kind, s.StaleAfterDays)
	return mapError(err)
}

func (r *tenderStageRepo) Create(ctx context.Context, stage *models.TenderStage) error {
	return insertStage(ctx, r.db, stage)
}

func (r *tenderStageRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.TenderStage, error) {
	query := `SELECT ` + stageColumns + ` FROM tender_stages WHERE tenant_id = $1 AND id = $2`
	return scanStage(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *tenderStageRepo) Update(ctx context.Context, s *models.TenderStage) error {
	query := `
		UPDATE tender_stages
		SET name = $1, position = $2, kind = $3, stale_after_days = $4, updated_at = NOW()
		WHERE tenant_id = $5 AND id = $6
	`
	return execOne(ctx, r.db, query, s.Name, s.Position, s.Kind, s.StaleAfterDays, s.TenantID, s.ID)
}

func (r *tenderStageRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM tender_stages WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *tenderStageRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*models.TenderStage, error) {
	query := `SELECT ` + stageColumns + ` FROM tender_stages WHERE tenant_id = $1 ORDER BY position`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []*models.TenderStage
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *tenderStageRepo) CountTenders(ctx context.Context, tenantID, stageID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tenders WHERE tenant_id = $1 AND stage_id = $2`, tenantID, stageID).Scan(&n)
	return n, err
}
