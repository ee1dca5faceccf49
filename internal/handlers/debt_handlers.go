package handlers

import (
	"net/http"

	"bizdesk/internal/common"
	"bizdesk/internal/middleware"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/labstack/echo/v4"
)

type DebtHandlers struct {
	debtService    services.DebtService
	rbacMiddleware *middleware.RBACMiddleware
}

func NewDebtHandlers(debtService services.DebtService, rbacMiddleware *middleware.RBACMiddleware) *DebtHandlers {
	return &DebtHandlers{
		debtService:    debtService,
		rbacMiddleware: rbacMiddleware,
	}
}

func (h *DebtHandlers) Register(g *echo.Group) {
	read := h.rbacMiddleware.RequirePermission(services.PermDebtsRead)
	write := h.rbacMiddleware.RequirePermission(services.PermDebtsWrite)

	g.GET("/debts", h.ListDebts, read)
	g.POST("/debts", h.CreateDebt, write)
	g.GET("/debts/:id", h.GetDebt, read)
	g.PUT("/debts/:id", h.UpdateDebt, write)
	g.DELETE("/debts/:id", h.DeleteDebt, write)
	g.GET("/debts/:id/payments", h.ListPayments, read)
	g.POST("/debts/:id/payments", h.RecordPayment, write)
}

func (h *DebtHandlers) ListDebts(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	filter := models.DebtFilter{
		Direction: c.QueryParam("direction"),
		Status:    c.QueryParam("status"),
		Limit:     limit,
		Offset:    offset,
	}
	if filter.Direction != "" && filter.Direction != models.DebtReceivable && filter.Direction != models.DebtPayable {
		return common.SendValidationError(c, "direction", "Must be one of: receivable payable")
	}

	debts, err := h.debtService.List(c.Request().Context(), tenantID, filter)
	if err != nil {
		return common.SendServiceError(c, err, "Debts")
	}
	return c.JSON(http.StatusOK, listResponse(debts, limit, offset))
}

// CreateDebt godoc
// @Summary      Create a debt
// @Description  Amount in kopecks. Status starts as unpaid.
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        debt  body      services.DebtRequest  true  "Debt"
// @Success      201   {object}  models.Debt
// @Failure      400   {object}  common.ErrorResponse
// @Router       /debts [post]
func (h *DebtHandlers) CreateDebt(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.DebtRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	debt, err := h.debtService.Create(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Debt")
	}
	return c.JSON(http.StatusCreated, debt)
}

func (h *DebtHandlers) GetDebt(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	debt, err := h.debtService.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Debt")
	}
	return c.JSON(http.StatusOK, debt)
}

// UpdateDebt rejects an amount below what has already been paid.
func (h *DebtHandlers) UpdateDebt(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.DebtRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	debt, err := h.debtService.Update(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Debt")
	}
	return c.JSON(http.StatusOK, debt)
}

func (h *DebtHandlers) DeleteDebt(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.debtService.Delete(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Debt")
	}
	return c.NoContent(http.StatusNoContent)
}

// RecordPayment godoc
// @Summary      Record a payment against a debt
// @Description  Rejects non-positive amounts and payments past the outstanding balance.
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Debt ID"
// @Param        payment  body      services.PaymentRequest  true  "Payment in kopecks"
// @Success      201      {object}  models.Debt
// @Failure      400      {object}  common.ErrorResponse
// @Failure      404      {object}  common.ErrorResponse
// @Router       /debts/{id}/payments [post]
func (h *DebtHandlers) RecordPayment(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	debt, err := h.debtService.RecordPayment(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Debt")
	}
	return c.JSON(http.StatusCreated, debt)
}

func (h *DebtHandlers) ListPayments(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	payments, err := h.debtService.Payments(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Debt")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": payments})
}
