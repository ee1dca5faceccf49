package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, auditLog *models.AuditLog) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AuditLog, error)
	// List applies the non-nil filters; EndDate is inclusive.
	List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db DB
}

func NewAuditLogsRepo(db DB) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	auditLog.CreatedAt = time.Now()
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}

	query := `
		INSERT INTO audit_logs (id, tenant_id, table_name, record_id, action, new_values, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var newValuesBytes []byte
	if auditLog.NewValues != nil {
		var err error
		newValuesBytes, err = json.Marshal(auditLog.NewValues)
		if err != nil {
			return fmt.Errorf("failed to marshal new_values: %w", err)
		}
	}

	_, err := r.db.Exec(ctx, query,
		auditLog.ID,
		auditLog.TenantID,
		auditLog.TableName,
		auditLog.RecordID,
		auditLog.Action,
		newValuesBytes,
		auditLog.ChangedBy,
		auditLog.CreatedAt,
	)
	return mapError(err)
}

func scanAuditLog(row pgx.Row) (*models.AuditLog, error) {
	auditLog := &models.AuditLog{}
	var newValuesBytes []byte

	err := row.Scan(
		&auditLog.ID,
		&auditLog.TenantID,
		&auditLog.TableName,
		&auditLog.RecordID,
		&auditLog.Action,
		&newValuesBytes,
		&auditLog.ChangedBy,
		&auditLog.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if len(newValuesBytes) > 0 {
		if err := json.Unmarshal(newValuesBytes, &auditLog.NewValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal new_values: %w", err)
		}
	}
	return auditLog, nil
}

func (r *auditLogsRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AuditLog, error) {
	query := `
		SELECT id, tenant_id, table_name, record_id, action, new_values, changed_by, created_at
		FROM audit_logs
		WHERE tenant_id = $1 AND id = $2
	`
	return scanAuditLog(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *auditLogsRepo) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}

	w := newWhere(`
		SELECT id, tenant_id, table_name, record_id, action, new_values, changed_by, created_at
		FROM audit_logs
		WHERE tenant_id = $1`, tenantID)

	if filters.TableName != nil {
		w.and("table_name = $%d", *filters.TableName)
	}
	if filters.RecordID != nil {
		w.and("record_id = $%d", *filters.RecordID)
	}
	if filters.Action != nil {
		w.and("action = $%d", *filters.Action)
	}
	if filters.ChangedBy != nil {
		w.and("changed_by = $%d", *filters.ChangedBy)
	}
	if filters.StartDate != nil {
		w.and("created_at >= $%d", *filters.StartDate)
	}
	if filters.EndDate != nil {
		w.and("created_at <= $%d", *filters.EndDate)
	}
	w.page("created_at DESC", filters.Limit, filters.Offset)

	rows, err := r.db.Query(ctx, w.query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auditLogs []*models.AuditLog
	for rows.Next() {
		auditLog, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		auditLogs = append(auditLogs, auditLog)
	}
	return auditLogs, rows.Err()
}
