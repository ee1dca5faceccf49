package handlers

import (
	"net/http"

	"bizdesk/internal/common"
	"bizdesk/internal/middleware"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/labstack/echo/v4"
)

type BankingHandlers struct {
	bankingService services.BankingService
	rbacMiddleware *middleware.RBACMiddleware
}

func NewBankingHandlers(bankingService services.BankingService, rbacMiddleware *middleware.RBACMiddleware) *BankingHandlers {
	return &BankingHandlers{
		bankingService: bankingService,
		rbacMiddleware: rbacMiddleware,
	}
}

func (h *BankingHandlers) Register(g *echo.Group) {
	read := h.rbacMiddleware.RequirePermission(services.PermBankingRead)
	write := h.rbacMiddleware.RequirePermission(services.PermBankingWrite)

	g.GET("/bank-accounts", h.ListAccounts, read)
	g.GET("/bank-accounts/balances", h.Balances, read)
	g.POST("/bank-accounts", h.CreateAccount, write)
	g.GET("/bank-accounts/:id", h.GetAccount, read)
	g.PUT("/bank-accounts/:id", h.UpdateAccount, write)
	g.DELETE("/bank-accounts/:id", h.DeleteAccount, write)

	g.GET("/bank-transactions", h.ListTransactions, read)
	g.POST("/bank-transactions", h.CreateTransaction, write)
	g.GET("/bank-transactions/:id", h.GetTransaction, read)
	g.PUT("/bank-transactions/:id", h.UpdateTransaction, write)
	g.DELETE("/bank-transactions/:id", h.DeleteTransaction, write)
}

func (h *BankingHandlers) ListAccounts(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	accounts, err := h.bankingService.ListAccounts(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServiceError(c, err, "Bank accounts")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": accounts})
}

// Balances godoc
// @Summary      Current balance of every bank account
// @Description  Opening balance plus incoming minus outgoing transactions, in kopecks.
// @Tags         banking
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /bank-accounts/balances [get]
func (h *BankingHandlers) Balances(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	balances, err := h.bankingService.Balances(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServiceError(c, err, "Balances")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": balances})
}

func (h *BankingHandlers) CreateAccount(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.BankAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	account, err := h.bankingService.CreateAccount(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Bank account")
	}
	return c.JSON(http.StatusCreated, account)
}

func (h *BankingHandlers) GetAccount(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	account, err := h.bankingService.GetAccount(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Bank account")
	}
	return c.JSON(http.StatusOK, account)
}

func (h *BankingHandlers) UpdateAccount(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.BankAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	account, err := h.bankingService.UpdateAccount(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Bank account")
	}
	return c.JSON(http.StatusOK, account)
}

func (h *BankingHandlers) DeleteAccount(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.bankingService.DeleteAccount(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Bank account")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListTransactions filters by account, direction and operation date range.
func (h *BankingHandlers) ListTransactions(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	accountID, err := queryUUID(c, "account_id")
	if err != nil {
		return err
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return err
	}
	direction := c.QueryParam("direction")
	if direction != "" && direction != models.DirectionIn && direction != models.DirectionOut {
		return common.SendValidationError(c, "direction", "Must be one of: in out")
	}

	txs, err := h.bankingService.ListTransactions(c.Request().Context(), tenantID, models.BankTransactionFilter{
		AccountID: accountID,
		Direction: direction,
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return common.SendServiceError(c, err, "Bank transactions")
	}
	return c.JSON(http.StatusOK, listResponse(txs, limit, offset))
}

func (h *BankingHandlers) CreateTransaction(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.BankTransactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	tx, err := h.bankingService.CreateTransaction(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Bank transaction")
	}
	return c.JSON(http.StatusCreated, tx)
}

func (h *BankingHandlers) GetTransaction(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	tx, err := h.bankingService.GetTransaction(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Bank transaction")
	}
	return c.JSON(http.StatusOK, tx)
}

func (h *BankingHandlers) UpdateTransaction(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.BankTransactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	tx, err := h.bankingService.UpdateTransaction(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Bank transaction")
	}
	return c.JSON(http.StatusOK, tx)
}

func (h *BankingHandlers) DeleteTransaction(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.bankingService.DeleteTransaction(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Bank transaction")
	}
	return c.NoContent(http.StatusNoContent)
}
