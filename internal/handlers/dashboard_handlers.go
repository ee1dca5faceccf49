package handlers

import (
	"net/http"
	"time"

	"bizdesk/internal/analytics"
	"bizdesk/internal/common"
	"bizdesk/internal/middleware"
	"bizdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// DashboardHandlers exposes the cached financial dashboards. Every endpoint
// takes an optional from/to range that defaults to the current month.
type DashboardHandlers struct {
	dashboardService analytics.DashboardService
	rbacMiddleware   *middleware.RBACMiddleware
	now              func() time.Time
}

func NewDashboardHandlers(dashboardService analytics.DashboardService, rbacMiddleware *middleware.RBACMiddleware) *DashboardHandlers {
	return &DashboardHandlers{
		dashboardService: dashboardService,
		rbacMiddleware:   rbacMiddleware,
		now:              time.Now,
	}
}

func (h *DashboardHandlers) Register(g *echo.Group) {
	d := g.Group("/dashboard", h.rbacMiddleware.RequirePermission(services.PermDashboardRead))
	d.GET("/overview", h.Overview)
	d.GET("/cash-flow", h.CashFlow)
	d.GET("/debt-aging", h.DebtAging)
	d.GET("/tender-profitability", h.TenderProfitability)
	d.GET("/expenses", h.Expenses)
}

// Overview godoc
// @Summary      Financial overview
// @Description  Income, expenses, profit, open receivables and payables, bank balance and active tenders.
// @Tags         dashboard
// @Produce      json
// @Param        from  query     string  false  "YYYY-MM-DD"
// @Param        to    query     string  false  "YYYY-MM-DD"
// @Success      200   {object}  models.FinancialOverview
// @Failure      400   {object}  common.ErrorResponse
// @Router       /dashboard/overview [get]
func (h *DashboardHandlers) Overview(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	from, to, err := dateRange(c, h.now())
	if err != nil {
		return err
	}
	overview, err := h.dashboardService.Overview(c.Request().Context(), tenantID, from, to)
	if err != nil {
		return common.SendServiceError(c, err, "Overview")
	}
	return c.JSON(http.StatusOK, overview)
}

func (h *DashboardHandlers) CashFlow(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	from, to, err := dateRange(c, h.now())
	if err != nil {
		return err
	}
	flow, err := h.dashboardService.CashFlow(c.Request().Context(), tenantID, from, to)
	if err != nil {
		return common.SendServiceError(c, err, "Cash flow")
	}
	return c.JSON(http.StatusOK, flow)
}

func (h *DashboardHandlers) DebtAging(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	asOf := h.now()
	if d, err := queryDate(c, "as_of"); err != nil {
		return err
	} else if d != nil {
		asOf = *d
	}
	aging, err := h.dashboardService.DebtAging(c.Request().Context(), tenantID, asOf)
	if err != nil {
		return common.SendServiceError(c, err, "Debt aging")
	}
	return c.JSON(http.StatusOK, aging)
}

func (h *DashboardHandlers) TenderProfitability(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	from, to, err := dateRange(c, h.now())
	if err != nil {
		return err
	}
	rows, err := h.dashboardService.TenderProfitability(c.Request().Context(), tenantID, from, to)
	if err != nil {
		return common.SendServiceError(c, err, "Tender profitability")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": rows})
}

func (h *DashboardHandlers) Expenses(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	from, to, err := dateRange(c, h.now())
	if err != nil {
		return err
	}
	rows, err := h.dashboardService.ExpenseBreakdown(c.Request().Context(), tenantID, from, to)
	if err != nil {
		return common.SendServiceError(c, err, "Expenses")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": rows})
}
