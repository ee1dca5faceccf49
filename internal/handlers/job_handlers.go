package handlers

import (
	"context"
	"net/http"

	"bizdesk/internal/common"
	"bizdesk/internal/jobs"
	"bizdesk/internal/jobs/background"
	"bizdesk/internal/middleware"
	"bizdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// JobRunner is the scheduler surface the API needs.
type JobRunner interface {
	Status() []background.JobStatus
	RunNow(name string) error
}

type StaleScanner interface {
	ScanTenant(ctx context.Context, tenantID uuid.UUID) (*jobs.StaleScanResult, error)
	LastResult(ctx context.Context, tenantID uuid.UUID) (*jobs.StaleScanResult, error)
}

// JobHandlers exposes background job status and the stale tender scan.
// runner is nil when the scheduler is disabled.
type JobHandlers struct {
	runner         JobRunner
	stale          StaleScanner
	rbacMiddleware *middleware.RBACMiddleware
}

func NewJobHandlers(runner JobRunner, stale StaleScanner, rbacMiddleware *middleware.RBACMiddleware) *JobHandlers {
	return &JobHandlers{
		runner:         runner,
		stale:          stale,
		rbacMiddleware: rbacMiddleware,
	}
}

func (h *JobHandlers) Register(g *echo.Group) {
	manage := h.rbacMiddleware.RequirePermission(services.PermTenantManage)
	tenders := h.rbacMiddleware.RequirePermission(services.PermTendersRead)

	g.GET("/jobs", h.Status, manage)
	g.POST("/jobs/:name/run", h.RunNow, manage)
	g.GET("/jobs/stale-tenders", h.LastStaleScan, tenders)
	g.POST("/jobs/stale-tenders/scan", h.ScanStale, tenders)
}

func (h *JobHandlers) Status(c echo.Context) error {
	if h.runner == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"enabled": false, "data": []background.JobStatus{}})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"enabled": true, "data": h.runner.Status()})
}

// RunNow godoc
// @Summary      Trigger a background job
// @Tags         jobs
// @Param        name  path  string  true  "stale-tender-scan or dashboard-warmup"
// @Success      202   {object}  map[string]string
// @Failure      404   {object}  common.ErrorResponse
// @Failure      503   {object}  common.ErrorResponse
// @Router       /jobs/{name}/run [post]
func (h *JobHandlers) RunNow(c echo.Context) error {
	if h.runner == nil {
		return c.JSON(http.StatusServiceUnavailable, common.CreateErrorResponse("UNAVAILABLE", "Background jobs are disabled", nil))
	}
	name := c.Param("name")
	if err := h.runner.RunNow(name); err != nil {
		return common.SendServiceError(c, err, "Job")
	}
	return c.JSON(http.StatusAccepted, map[string]string{"job": name, "status": "scheduled"})
}

// LastStaleScan returns the tenant's most recent scan, 404 before the first one.
func (h *JobHandlers) LastStaleScan(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	result, err := h.stale.LastResult(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServiceError(c, err, "Stale scan")
	}
	if result == nil {
		return common.SendNotFoundError(c, "Stale scan")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *JobHandlers) ScanStale(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	result, err := h.stale.ScanTenant(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServiceError(c, err, "Stale scan")
	}
	return c.JSON(http.StatusOK, result)
}
