package middleware

import (
	"net/http"

	"bizdesk/internal/common"
	"bizdesk/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RBACMiddleware gates routes on the caller's role. A caller maps to the
// active employee row for (tenant, user) and that employee's role; the role's
// permission list is the only grant, with "*" granting everything. Callers
// without an employee row in the tenant get 403.
type RBACMiddleware struct {
	rbacService services.RBACService
}

func NewRBACMiddleware(rbacService services.RBACService) *RBACMiddleware {
	return &RBACMiddleware{
		rbacService: rbacService,
	}
}

// RequirePermission lets the request through when the caller's role grants
// permission or the wildcard.
func (m *RBACMiddleware) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userID, ok := common.GetUserIDFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Tenant not found")
			}

			hasPermission, err := m.rbacService.UserHasPermission(ctx, userID, tenantID, permission)
			if err != nil {
				common.LoggerFromContext(ctx).Error("permission check failed", zap.String("permission", permission), zap.Error(err))
				return echo.NewHTTPError(http.StatusInternalServerError, "Error checking permission")
			}
			if !hasPermission {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}

			return next(c)
		}
	}
}
