package handlers

import (
	"fmt"
	"net/http"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/middleware"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AccountingHandlers serves accounting documents and the KUDiR ledger.
type AccountingHandlers struct {
	documentService services.DocumentService
	kudirService    services.KudirService
	rbacMiddleware  *middleware.RBACMiddleware
	now             func() time.Time
}

func NewAccountingHandlers(documentService services.DocumentService, kudirService services.KudirService, rbacMiddleware *middleware.RBACMiddleware) *AccountingHandlers {
	return &AccountingHandlers{
		documentService: documentService,
		kudirService:    kudirService,
		rbacMiddleware:  rbacMiddleware,
		now:             time.Now,
	}
}

func (h *AccountingHandlers) Register(g *echo.Group) {
	read := h.rbacMiddleware.RequirePermission(services.PermAccountingRead)
	write := h.rbacMiddleware.RequirePermission(services.PermAccountingWrite)

	g.GET("/documents", h.ListDocuments, read)
	g.POST("/documents", h.CreateDocument, write)
	g.GET("/documents/:id", h.GetDocument, read)
	g.PUT("/documents/:id", h.UpdateDocument, write)
	g.DELETE("/documents/:id", h.DeleteDocument, write)
	g.POST("/documents/:id/file", h.UploadFile, write)
	g.GET("/documents/:id/file", h.FileURL, read)

	g.GET("/kudir", h.ListEntries, read)
	g.GET("/kudir/summary", h.Summary, read)
	g.GET("/kudir/export", h.Export, read)
	g.POST("/kudir/import", h.ImportFromBank, write)
	g.POST("/kudir", h.CreateEntry, write)
	g.GET("/kudir/:id", h.GetEntry, read)
	g.PUT("/kudir/:id", h.UpdateEntry, write)
	g.DELETE("/kudir/:id", h.DeleteEntry, write)
}

func (h *AccountingHandlers) ListDocuments(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	tenderID, err := queryUUID(c, "tender_id")
	if err != nil {
		return err
	}

	docs, err := h.documentService.List(c.Request().Context(), tenantID, models.DocumentFilter{
		DocType:  c.QueryParam("doc_type"),
		Status:   c.QueryParam("status"),
		TenderID: tenderID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return common.SendServiceError(c, err, "Documents")
	}
	return c.JSON(http.StatusOK, listResponse(docs, limit, offset))
}

func (h *AccountingHandlers) CreateDocument(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.DocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	doc, err := h.documentService.Create(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Document")
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *AccountingHandlers) GetDocument(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	doc, err := h.documentService.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Document")
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *AccountingHandlers) UpdateDocument(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.DocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	doc, err := h.documentService.Update(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Document")
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *AccountingHandlers) DeleteDocument(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.documentService.Delete(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Document")
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadFile godoc
// @Summary      Attach a file to a document
// @Description  Multipart upload under the "file" field. Replaces any previous file.
// @Tags         accounting
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "Document ID"
// @Param        file  formData  file    true  "Scan or PDF"
// @Success      200   {object}  models.AccountingDocument
// @Failure      413   {object}  common.ErrorResponse
// @Failure      503   {object}  common.ErrorResponse
// @Router       /documents/{id}/file [post]
func (h *AccountingHandlers) UploadFile(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "File is required")
	}
	if fh.Size > services.MaxDocumentSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable file")
	}
	defer src.Close()

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	doc, err := h.documentService.UploadFile(c.Request().Context(), tenantID, id, &services.FileUpload{
		Name:        fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Reader:      src,
	})
	if err != nil {
		return common.SendServiceError(c, err, "Document")
	}
	return c.JSON(http.StatusOK, doc)
}

// FileURL returns a short-lived presigned download link.
func (h *AccountingHandlers) FileURL(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	url, err := h.documentService.FileURL(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Document file")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

func (h *AccountingHandlers) ListEntries(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
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
	entries, err := h.kudirService.List(c.Request().Context(), tenantID, models.KudirFilter{
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return common.SendServiceError(c, err, "Ledger entries")
	}
	return c.JSON(http.StatusOK, listResponse(entries, limit, offset))
}

func (h *AccountingHandlers) CreateEntry(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.KudirEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	entry, err := h.kudirService.Create(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Ledger entry")
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *AccountingHandlers) GetEntry(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	entry, err := h.kudirService.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Ledger entry")
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *AccountingHandlers) UpdateEntry(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.KudirEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	entry, err := h.kudirService.Update(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Ledger entry")
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *AccountingHandlers) DeleteEntry(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.kudirService.Delete(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Ledger entry")
	}
	return c.NoContent(http.StatusNoContent)
}

type importRequest struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required"`
}

// ImportFromBank godoc
// @Summary      Ledger bank transactions
// @Description  Creates a KUDiR entry for every transaction in range that has none yet.
// @Tags         accounting
// @Accept       json
// @Produce      json
// @Param        range  body      importRequest  true  "Operation date range"
// @Success      201    {object}  map[string]interface{}
// @Router       /kudir/import [post]
func (h *AccountingHandlers) ImportFromBank(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req importRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	if err := common.ValidateDateRange(req.From, req.To); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.kudirService.ImportFromBank(c.Request().Context(), tenantID, req.From, req.To)
	if err != nil {
		return common.SendServiceError(c, err, "Ledger import")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"data":     created,
		"imported": len(created),
	})
}

func (h *AccountingHandlers) year(c echo.Context) (int, error) {
	year, err := queryInt(c, "year", h.now().Year())
	if err != nil {
		return 0, err
	}
	if year < 2000 || year > 2100 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "year out of range")
	}
	return year, nil
}

func (h *AccountingHandlers) Summary(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	year, err := h.year(c)
	if err != nil {
		return err
	}
	summary, err := h.kudirService.Summary(c.Request().Context(), tenantID, year)
	if err != nil {
		return common.SendServiceError(c, err, "Ledger summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// Export godoc
// @Summary      Download the KUDiR ledger as xlsx
// @Tags         accounting
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        year  query  int  false  "Ledger year, defaults to the current one"
// @Success      200   {file}  file
// @Router       /kudir/export [get]
func (h *AccountingHandlers) Export(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	year, err := h.year(c)
	if err != nil {
		return err
	}
	buf, filename, err := h.kudirService.Export(c.Request().Context(), tenantID, year)
	if err != nil {
		return common.SendServiceError(c, err, "Ledger export")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
