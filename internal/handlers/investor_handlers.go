package handlers

import (
	"net/http"

	"bizdesk/internal/common"
	"bizdesk/internal/middleware"
	"bizdesk/internal/services"

	"github.com/labstack/echo/v4"
)

type InvestorHandlers struct {
	investorService services.InvestorService
	rbacMiddleware  *middleware.RBACMiddleware
}

func NewInvestorHandlers(investorService services.InvestorService, rbacMiddleware *middleware.RBACMiddleware) *InvestorHandlers {
	return &InvestorHandlers{
		investorService: investorService,
		rbacMiddleware:  rbacMiddleware,
	}
}

func (h *InvestorHandlers) Register(g *echo.Group) {
	read := h.rbacMiddleware.RequirePermission(services.PermInvestorsRead)
	write := h.rbacMiddleware.RequirePermission(services.PermInvestorsWrite)

	g.GET("/investors", h.ListInvestors, read)
	g.POST("/investors", h.CreateInvestor, write)
	g.GET("/investors/:id", h.GetInvestor, read)
	g.PUT("/investors/:id", h.UpdateInvestor, write)
	g.DELETE("/investors/:id", h.DeleteInvestor, write)
	g.GET("/investors/:id/summary", h.Summary, read)

	g.GET("/investments", h.ListInvestments, read)
	g.POST("/investments", h.CreateInvestment, write)
	g.GET("/investments/:id", h.GetInvestment, read)
	g.PUT("/investments/:id", h.UpdateInvestment, write)
	g.DELETE("/investments/:id", h.DeleteInvestment, write)
	g.GET("/investments/:id/schedule", h.PayoutSchedule, read)
}

func (h *InvestorHandlers) ListInvestors(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	investors, err := h.investorService.List(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return common.SendServiceError(c, err, "Investors")
	}
	return c.JSON(http.StatusOK, listResponse(investors, limit, offset))
}

func (h *InvestorHandlers) CreateInvestor(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.InvestorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	investor, err := h.investorService.Create(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Investor")
	}
	return c.JSON(http.StatusCreated, investor)
}

func (h *InvestorHandlers) GetInvestor(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	investor, err := h.investorService.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Investor")
	}
	return c.JSON(http.StatusOK, investor)
}

func (h *InvestorHandlers) UpdateInvestor(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.InvestorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	investor, err := h.investorService.Update(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Investor")
	}
	return c.JSON(http.StatusOK, investor)
}

// DeleteInvestor fails with 409 while investments reference the investor.
func (h *InvestorHandlers) DeleteInvestor(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.investorService.Delete(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Investor")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InvestorHandlers) Summary(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	summary, err := h.investorService.Summary(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Investor")
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *InvestorHandlers) ListInvestments(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	investorID, err := queryUUID(c, "investor_id")
	if err != nil {
		return err
	}
	investments, err := h.investorService.ListInvestments(c.Request().Context(), tenantID, investorID)
	if err != nil {
		return common.SendServiceError(c, err, "Investments")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": investments})
}

// CreateInvestment godoc
// @Summary      Record an investment
// @Description  payout_formula is an expression over amount, rate, term and month; empty means simple monthly interest.
// @Tags         investors
// @Accept       json
// @Produce      json
// @Param        investment  body      services.InvestmentRequest  true  "Investment, amount in kopecks"
// @Success      201         {object}  models.Investment
// @Failure      400         {object}  common.ErrorResponse
// @Router       /investments [post]
func (h *InvestorHandlers) CreateInvestment(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.InvestmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	inv, err := h.investorService.CreateInvestment(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Investment")
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *InvestorHandlers) GetInvestment(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	inv, err := h.investorService.GetInvestment(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Investment")
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InvestorHandlers) UpdateInvestment(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.InvestmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	inv, err := h.investorService.UpdateInvestment(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Investment")
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InvestorHandlers) DeleteInvestment(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.investorService.DeleteInvestment(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Investment")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InvestorHandlers) PayoutSchedule(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rows, err := h.investorService.PayoutSchedule(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Investment")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": rows})
}
