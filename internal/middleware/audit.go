package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Audit sensitivity levels.
const (
	AuditStandard = "standard"
	AuditHigh     = "high"
)

const (
	auditTable          = "http_requests"
	auditTableSensitive = "http_requests_sensitive"
)

// AuditMiddleware writes an audit row for every mutating request.
type AuditMiddleware struct {
	auditService services.AuditLogsService
	now          func() time.Time
}

func NewAuditMiddleware(auditService services.AuditLogsService) *AuditMiddleware {
	return &AuditMiddleware{
		auditService: auditService,
		now:          time.Now,
	}
}

// AuditRequest records POST, PUT, PATCH and DELETE requests once the handler
// has run. The high level also keeps the query and sanitized headers.
func (m *AuditMiddleware) AuditRequest(sensitivityLevel string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			method := c.Request().Method
			if !isMutating(method) || shouldSkipAudit(c.Path()) {
				return err
			}

			ctx := c.Request().Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return err
			}
			var changedBy *uuid.UUID
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				changedBy = &userID
			}

			data := models.JSONB{
				"method":     method,
				"path":       c.Request().URL.Path,
				"route":      c.Path(),
				"status":     responseStatus(c, err),
				"ip":         c.RealIP(),
				"user_agent": c.Request().UserAgent(),
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"timestamp":  m.now().UTC().Format(time.RFC3339),
			}
			if err != nil {
				data["error"] = err.Error()
			}

			table := auditTable
			if sensitivityLevel == AuditHigh {
				table = auditTableSensitive
				data["query_params"] = c.QueryParams()
				data["headers"] = sanitizeHeaders(c.Request().Header)
			}

			recordID := c.Param("id")
			if recordID == "" {
				recordID = c.Path()
			}

			if logErr := m.auditService.LogActivity(ctx, tenantID, table, recordID, method+" "+c.Path(), changedBy, data); logErr != nil {
				common.LoggerFromContext(ctx).Warn("failed to write audit log", zap.Error(logErr))
			}
			return err
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

var auditSkipPrefixes = []string{"/health", "/metrics", "/swagger"}

func shouldSkipAudit(path string) bool {
	for _, prefix := range auditSkipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// sanitizeHeaders redacts credentials before headers reach the audit log.
func sanitizeHeaders(headers http.Header) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = "[REDACTED]"
			continue
		}
		sanitized[key] = values
	}
	return sanitized
}

// responseStatus is the status the client will see. Errors returned by a
// handler are rendered later by the error handler, so their code is taken
// from the error itself.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
