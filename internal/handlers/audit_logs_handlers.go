package handlers

import (
	"net/http"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/middleware"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers handles audit logs related HTTP requests
type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
	rbacMiddleware   *middleware.RBACMiddleware
}

// NewAuditLogsHandlers creates a new audit logs handlers instance
func NewAuditLogsHandlers(auditLogsService services.AuditLogsService, rbacMiddleware *middleware.RBACMiddleware) *AuditLogsHandlers {
	return &AuditLogsHandlers{
		auditLogsService: auditLogsService,
		rbacMiddleware:   rbacMiddleware,
	}
}

func (h *AuditLogsHandlers) Register(g *echo.Group) {
	read := h.rbacMiddleware.RequirePermission(services.PermAuditRead)
	g.GET("/audit-logs", h.ListAuditLogs, read)
	g.GET("/audit-logs/:id", h.GetAuditLog, read)
}

// ListAuditLogs godoc
// @Summary      List audit log entries
// @Description  Mutating API requests of the tenant, newest first. end_date is inclusive.
// @Tags         audit
// @Produce      json
// @Param        table       query  string  false  "http_requests or http_requests_sensitive"
// @Param        record_id   query  string  false  "Record ID or route"
// @Param        action      query  string  false  "Method and route, e.g. POST /v1/tenders"
// @Param        user_id     query  string  false  "Acting user"
// @Param        start_date  query  string  false  "YYYY-MM-DD"
// @Param        end_date    query  string  false  "YYYY-MM-DD"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  common.ErrorResponse
// @Router       /audit-logs [get]
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	filters := &models.AuditLogFilters{Limit: limit, Offset: offset}
	if table := c.QueryParam("table"); table != "" {
		filters.TableName = &table
	}
	if recordID := c.QueryParam("record_id"); recordID != "" {
		filters.RecordID = &recordID
	}
	if action := c.QueryParam("action"); action != "" {
		filters.Action = &action
	}
	if filters.ChangedBy, err = queryUUID(c, "user_id"); err != nil {
		return err
	}
	if filters.StartDate, err = queryDate(c, "start_date"); err != nil {
		return err
	}
	end, err := queryDate(c, "end_date")
	if err != nil {
		return err
	}
	if end != nil {
		inclusive := end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filters.EndDate = &inclusive
	}
	if filters.StartDate != nil && filters.EndDate != nil {
		if err := common.ValidateDateRange(*filters.StartDate, *filters.EndDate); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	logs, err := h.auditLogsService.ListAuditLogs(c.Request().Context(), tenantID, filters)
	if err != nil {
		return common.SendServiceError(c, err, "Audit logs")
	}
	return c.JSON(http.StatusOK, listResponse(logs, limit, offset))
}

// GetAuditLog retrieves a specific audit log entry
func (h *AuditLogsHandlers) GetAuditLog(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	entry, err := h.auditLogsService.GetAuditLog(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Audit log")
	}
	return c.JSON(http.StatusOK, entry)
}
