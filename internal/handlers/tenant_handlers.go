package handlers

import (
	"net/http"

	"bizdesk/internal/common"
	"bizdesk/internal/middleware"
	"bizdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers handles tenant onboarding and the caller's own tenant.
type TenantHandlers struct {
	tenantService  services.TenantService
	rbacService    services.RBACService
	rbacMiddleware *middleware.RBACMiddleware
}

// NewTenantHandlers creates a new tenant handlers instance
func NewTenantHandlers(tenantService services.TenantService, rbacService services.RBACService, rbacMiddleware *middleware.RBACMiddleware) *TenantHandlers {
	return &TenantHandlers{
		tenantService:  tenantService,
		rbacService:    rbacService,
		rbacMiddleware: rbacMiddleware,
	}
}

// RegisterOnboarding mounts tenant creation on a group that does not
// require tenant membership.
func (h *TenantHandlers) RegisterOnboarding(g *echo.Group) {
	g.POST("/tenants", h.CreateTenant)
}

func (h *TenantHandlers) Register(g *echo.Group) {
	manage := h.rbacMiddleware.RequirePermission(services.PermTenantManage)
	g.GET("/tenant", h.GetTenant)
	g.PUT("/tenant", h.UpdateTenant, manage)
	g.DELETE("/tenant", h.DeleteTenant, manage)
	g.GET("/me/permissions", h.MyPermissions)
}

// CreateTenant godoc
// @Summary      Create a tenant
// @Description  Creates the tenant with the default tender pipeline and makes the caller its owner.
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        tenant  body      services.CreateTenantRequest  true  "Tenant"
// @Success      201     {object}  models.Tenant
// @Failure      400     {object}  common.ErrorResponse
// @Failure      409     {object}  common.ErrorResponse
// @Router       /tenants [post]
func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}
	if _, member := common.GetTenantIDFromContext(ctx); member {
		return common.SendConflictError(c, "User already belongs to a tenant")
	}

	var req services.CreateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	tenant, err := h.tenantService.Create(ctx, userID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Tenant")
	}
	return c.JSON(http.StatusCreated, tenant)
}

func (h *TenantHandlers) GetTenant(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	tenant, err := h.tenantService.GetByID(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServiceError(c, err, "Tenant")
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandlers) UpdateTenant(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ID = tenantID
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	tenant, err := h.tenantService.Update(c.Request().Context(), &req)
	if err != nil {
		return common.SendServiceError(c, err, "Tenant")
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandlers) DeleteTenant(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	if err := h.tenantService.Delete(c.Request().Context(), tenantID); err != nil {
		return common.SendServiceError(c, err, "Tenant")
	}
	return c.NoContent(http.StatusNoContent)
}

// MyPermissions lists what the caller's role grants in their tenant.
func (h *TenantHandlers) MyPermissions(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}
	perms, err := h.rbacService.GetUserPermissions(c.Request().Context(), userID, tenantID)
	if err != nil {
		return common.SendServiceError(c, err, "Permissions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":     userID,
		"tenant_id":   tenantID,
		"permissions": perms,
	})
}
