package repositories

import (
	"context"
	"fmt"

	"bizdesk/internal/common"
	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenderRepository interface {
	Create(ctx context.Context, tender *models.Tender) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Tender, error)
	Update(ctx context.Context, tender *models.Tender) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.TenderFilter) ([]*models.Tender, error)
	// ListOpen returns tenders whose stage is not final.
	ListOpen(ctx context.Context, tenantID uuid.UUID) ([]*models.Tender, error)
	// ChangeStage moves the tender and appends the history row in one transaction.
	ChangeStage(ctx context.Context, change *models.TenderStageChange) error
	History(ctx context.Context, tenantID, tenderID uuid.UUID) ([]*models.TenderStageChange, error)
}

type tenderRepo struct {
	db DB
}

func NewTenderRepo(db DB) TenderRepository {
	return &tenderRepo{db: db}
}

const tenderColumns = `t.id, t.tenant_id, t.title, t.customer, t.registry_number, t.platform, t.initial_price, t.bid_price,
	t.contract_price, t.cost_estimate, t.stage_id, t.stage_changed_at, t.deadline, t.responsible_id, t.notes, t.created_at, t.updated_at`

func scanTender(row pgx.Row) (*models.Tender, error) {
	t := &models.Tender{}
	err := row.Scan(&t.ID, &t.TenantID, &t.Title, &t.Customer, &t.RegistryNumber, &t.Platform, &t.InitialPrice, &t.BidPrice,
		&t.ContractPrice, &t.CostEstimate, &t.StageID, &t.StageChangedAt, &t.Deadline, &t.ResponsibleID, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func collectTenders(rows pgx.Rows) ([]*models.Tender, error) {
	defer rows.Close()
	var tenders []*models.Tender
	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			return nil, err
		}
		tenders = append(tenders, t)
	}
	return tenders, rows.Err()
}

func (r *tenderRepo) Create(ctx context.Context, t *models.Tender) error {
	query := `
		INSERT INTO tenders (id, tenant_id, title, customer, registry_number, platform, initial_price, bid_price,
			contract_price, cost_estimate, stage_id, stage_changed_at, deadline, responsible_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, t.ID, t.TenantID, t.Title, t.Customer, t.RegistryNumber, t.Platform, t.InitialPrice, t.BidPrice,
		t.ContractPrice, t.CostEstimate, t.StageID, t.StageChangedAt, t.Deadline, t.ResponsibleID, t.Notes)
	return mapError(err)
}

func (r *tenderRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Tender, error) {
	query := `SELECT ` + tenderColumns + ` FROM tenders t WHERE t.tenant_id = $1 AND t.id = $2`
	return scanTender(r.db.QueryRow(ctx, query, tenantID, id))
}

// Update leaves stage_id alone; stage moves go through ChangeStage.
func (r *tenderRepo) Update(ctx context.Context, t *models.Tender) error {
	query := `
		UPDATE tenders
		SET title = $1, customer = $2, registry_number = $3, platform = $4, initial_price = $5, bid_price = $6,
			contract_price = $7, cost_estimate = $8, deadline = $9, responsible_id = $10, notes = $11, updated_at = NOW()
		WHERE tenant_id = $12 AND id = $13
	`
	return execOne(ctx, r.db, query, t.Title, t.Customer, t.RegistryNumber, t.Platform, t.InitialPrice, t.BidPrice,
		t.ContractPrice, t.CostEstimate, t.Deadline, t.ResponsibleID, t.Notes, t.TenantID, t.ID)
}

func (r *tenderRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM tenders WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *tenderRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.TenderFilter) ([]*models.Tender, error) {
	w := newWhere(`SELECT `+tenderColumns+` FROM tenders t WHERE t.tenant_id = $1`, tenantID)
	if filter.StageID != nil {
		w.and("t.stage_id = $%d", *filter.StageID)
	}
	if filter.ResponsibleID != nil {
		w.and("t.responsible_id = $%d", *filter.ResponsibleID)
	}
	if filter.Query != "" {
		w.and("(t.title ILIKE $%[1]d OR t.customer ILIKE $%[1]d OR t.registry_number ILIKE $%[1]d)", "%"+filter.Query+"%")
	}
	w.page("t.created_at DESC", filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, w.query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectTenders(rows)
}

func (r *tenderRepo) ListOpen(ctx context.Context, tenantID uuid.UUID) ([]*models.Tender, error) {
	query := `
		SELECT ` + tenderColumns + `
		FROM tenders t
		JOIN tender_stages s ON s.id = t.stage_id
		WHERE t.tenant_id = $1 AND s.kind = 'open'
		ORDER BY t.stage_changed_at
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	return collectTenders(rows)
}

// ChangeStage only moves a tender still in c.FromStageID; losing a
// concurrent move yields ErrConflict.
func (r *tenderRepo) ChangeStage(ctx context.Context, c *models.TenderStageChange) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE tenders SET stage_id = $1, stage_changed_at = $2, updated_at = NOW()
			WHERE tenant_id = $3 AND id = $4 AND stage_id = $5
		`, c.ToStageID, c.ChangedAt, c.TenantID, c.TenderID, c.FromStageID)
		if err != nil {
			return mapError(err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenders WHERE tenant_id = $1 AND id = $2)`,
				c.TenantID, c.TenderID).Scan(&exists); err != nil {
				return mapError(err)
			}
			if !exists {
				return common.ErrNotFound
			}
			return fmt.Errorf("%w: tender moved to another stage meanwhile", common.ErrConflict)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO tender_stage_changes (id, tenant_id, tender_id, from_stage_id, to_stage_id, changed_by, changed_at, seconds_in_stage)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, c.ID, c.TenantID, c.TenderID, c.FromStageID, c.ToStageID, c.ChangedBy, c.ChangedAt, c.SecondsInStage)
		return mapError(err)
	})
}

func (r *tenderRepo) History(ctx context.Context, tenantID, tenderID uuid.UUID) ([]*models.TenderStageChange, error) {
	query := `
		SELECT id, tenant_id, tender_id, from_stage_id, to_stage_id, changed_by, changed_at, seconds_in_stage
		FROM tender_stage_changes
		WHERE tenant_id = $1 AND tender_id = $2
		ORDER BY changed_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, tenderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []*models.TenderStageChange
	for rows.Next() {
		c := &models.TenderStageChange{}
		if err := rows.Scan(&c.ID, &c.TenantID, &c.TenderID, &c.FromStageID, &c.ToStageID, &c.ChangedBy, &c.ChangedAt, &c.SecondsInStage); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
