package services

import (
	"context"
	"time"

	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
)

type AuditLogsService interface {
	// LogActivity records one API action; recordID is the request path.
	LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, newValues models.JSONB) error
	GetAuditLog(ctx context.Context, tenantID, auditLogID uuid.UUID) (*models.AuditLog, error)
	ListAuditLogs(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{
		auditLogsRepo: auditLogsRepo,
	}
}

func (s *auditLogsService) LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, newValues models.JSONB) error {
	if tableName == "" {
		return invalid("table_name is required")
	}
	if action == "" {
		return invalid("action is required")
	}

	auditLog := &models.AuditLog{
		ID:        uuid.New(),
		TenantID:  tenantID,
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		NewValues: newValues,
		ChangedBy: changedBy,
		CreatedAt: time.Now().UTC(),
	}

	return s.auditLogsRepo.Create(ctx, auditLog)
}

func (s *auditLogsService) GetAuditLog(ctx context.Context, tenantID, auditLogID uuid.UUID) (*models.AuditLog, error) {
	return s.auditLogsRepo.GetByID(ctx, tenantID, auditLogID)
}

// ListAuditLogs returns the tenant's entries, newest first. A missing or
// oversized limit falls back to 50.
func (s *auditLogsService) ListAuditLogs(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{Limit: 50}
	}
	if filters.Limit <= 0 || filters.Limit > 1000 {
		filters.Limit = 50
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.StartDate.After(*filters.EndDate) {
		return nil, invalid("start_date cannot be after end_date")
	}

	return s.auditLogsRepo.List(ctx, tenantID, filters)
}
