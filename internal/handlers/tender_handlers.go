package handlers

import (
	"net/http"

	"bizdesk/internal/common"
	"bizdesk/internal/middleware"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenderHandlers serves the tender pipeline: stages, tenders and stage moves.
type TenderHandlers struct {
	tenderService  services.TenderService
	rbacMiddleware *middleware.RBACMiddleware
}

func NewTenderHandlers(tenderService services.TenderService, rbacMiddleware *middleware.RBACMiddleware) *TenderHandlers {
	return &TenderHandlers{
		tenderService:  tenderService,
		rbacMiddleware: rbacMiddleware,
	}
}

func (h *TenderHandlers) Register(g *echo.Group) {
	read := h.rbacMiddleware.RequirePermission(services.PermTendersRead)
	write := h.rbacMiddleware.RequirePermission(services.PermTendersWrite)

	g.GET("/tender-stages", h.ListStages, read)
	g.POST("/tender-stages", h.CreateStage, write)
	g.PUT("/tender-stages/:id", h.UpdateStage, write)
	g.DELETE("/tender-stages/:id", h.DeleteStage, write)

	g.GET("/tenders", h.ListTenders, read)
	g.GET("/tenders/stale", h.ListStale, read)
	g.POST("/tenders", h.CreateTender, write)
	g.GET("/tenders/:id", h.GetTender, read)
	g.PUT("/tenders/:id", h.UpdateTender, write)
	g.DELETE("/tenders/:id", h.DeleteTender, write)
	g.POST("/tenders/:id/stage", h.ChangeStage, write)
	g.GET("/tenders/:id/history", h.History, read)
}

func (h *TenderHandlers) ListStages(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	stages, err := h.tenderService.ListStages(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServiceError(c, err, "Stages")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": stages})
}

func (h *TenderHandlers) CreateStage(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.StageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	stage, err := h.tenderService.CreateStage(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Stage")
	}
	return c.JSON(http.StatusCreated, stage)
}

func (h *TenderHandlers) UpdateStage(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.StageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	stage, err := h.tenderService.UpdateStage(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Stage")
	}
	return c.JSON(http.StatusOK, stage)
}

// DeleteStage fails with 409 while the stage still holds tenders.
func (h *TenderHandlers) DeleteStage(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tenderService.DeleteStage(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Stage")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListTenders godoc
// @Summary      List tenders
// @Description  Tenders of the tenant with their stage timing. Filters by stage, responsible employee and a text query.
// @Tags         tenders
// @Produce      json
// @Param        stage_id        query  string  false  "Stage ID"
// @Param        responsible_id  query  string  false  "Employee ID"
// @Param        q               query  string  false  "Text query"
// @Param        limit           query  int     false  "Page size"  default(50)
// @Param        offset          query  int     false  "Offset"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  common.ErrorResponse
// @Router       /tenders [get]
func (h *TenderHandlers) ListTenders(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	stageID, err := queryUUID(c, "stage_id")
	if err != nil {
		return err
	}
	responsibleID, err := queryUUID(c, "responsible_id")
	if err != nil {
		return err
	}

	tenders, err := h.tenderService.List(c.Request().Context(), tenantID, models.TenderFilter{
		StageID:       stageID,
		ResponsibleID: responsibleID,
		Query:         common.SanitizeSearchQuery(c.QueryParam("q")),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return common.SendServiceError(c, err, "Tenders")
	}
	return c.JSON(http.StatusOK, listResponse(tenders, limit, offset))
}

func (h *TenderHandlers) ListStale(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	tenders, err := h.tenderService.ListStale(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServiceError(c, err, "Tenders")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": tenders, "count": len(tenders)})
}

// CreateTender godoc
// @Summary      Create a tender
// @Tags         tenders
// @Accept       json
// @Produce      json
// @Param        tender  body      services.TenderRequest  true  "Tender, prices in kopecks"
// @Success      201     {object}  services.TenderView
// @Failure      400     {object}  common.ErrorResponse
// @Router       /tenders [post]
func (h *TenderHandlers) CreateTender(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.TenderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	tender, err := h.tenderService.Create(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Tender")
	}
	return c.JSON(http.StatusCreated, tender)
}

func (h *TenderHandlers) GetTender(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	tender, err := h.tenderService.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Tender")
	}
	return c.JSON(http.StatusOK, tender)
}

func (h *TenderHandlers) UpdateTender(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.TenderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	tender, err := h.tenderService.Update(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Tender")
	}
	return c.JSON(http.StatusOK, tender)
}

func (h *TenderHandlers) DeleteTender(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tenderService.Delete(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Tender")
	}
	return c.NoContent(http.StatusNoContent)
}

type changeStageRequest struct {
	StageID uuid.UUID `json:"stage_id" validate:"required"`
}

// ChangeStage godoc
// @Summary      Move a tender to another stage
// @Description  Records the time spent in the previous stage. Moving to the current stage is rejected.
// @Tags         tenders
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Tender ID"
// @Param        body  body      changeStageRequest  true  "Target stage"
// @Success      200   {object}  services.TenderView
// @Failure      400   {object}  common.ErrorResponse
// @Failure      404   {object}  common.ErrorResponse
// @Router       /tenders/{id}/stage [post]
func (h *TenderHandlers) ChangeStage(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req changeStageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	var by *uuid.UUID
	if userID, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
		by = &userID
	}
	tender, err := h.tenderService.ChangeStage(c.Request().Context(), tenantID, id, req.StageID, by)
	if err != nil {
		return common.SendServiceError(c, err, "Tender")
	}
	return c.JSON(http.StatusOK, tender)
}

func (h *TenderHandlers) History(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	changes, err := h.tenderService.History(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Tender")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": changes})
}
