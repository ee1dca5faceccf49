package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxDocumentSize bounds uploaded document files.
const MaxDocumentSize = 25 << 20

type DocumentService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *DocumentRequest) (*models.AccountingDocument, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.AccountingDocument, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *DocumentRequest) (*models.AccountingDocument, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.DocumentFilter) ([]*models.AccountingDocument, error)
	UploadFile(ctx context.Context, tenantID, id uuid.UUID, file *FileUpload) (*models.AccountingDocument, error)
	FileURL(ctx context.Context, tenantID, id uuid.UUID) (string, error)
}

type DocumentRequest struct {
	DocType      string     `json:"doc_type" validate:"required,oneof=invoice act waybill contract other"`
	Number       string     `json:"number" validate:"required"`
	Counterparty string     `json:"counterparty"`
	Amount       int64      `json:"amount" validate:"gte=0"`
	DocDate      *time.Time `json:"doc_date"`
	Status       string     `json:"status" validate:"omitempty,oneof=draft issued signed cancelled"`
	TenderID     *uuid.UUID `json:"tender_id"`
}

// FileUpload is a file taken from a multipart form.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type documentService struct {
	docRepo repositories.DocumentRepository
	storage StorageService
	logger  *zap.Logger
	now     func() time.Time
}

// NewDocumentService builds the service; storage may be nil, in which case
// file operations fail with ErrNoStorage.
func NewDocumentService(docRepo repositories.DocumentRepository, storage StorageService, logger *zap.Logger) DocumentService {
	return &documentService{docRepo: docRepo, storage: storage, logger: logger, now: time.Now}
}

var docTypes = map[string]bool{
	models.DocTypeInvoice: true, models.DocTypeAct: true, models.DocTypeWaybill: true,
	models.DocTypeContract: true, models.DocTypeOther: true,
}

var docStatuses = map[string]bool{
	models.DocStatusDraft: true, models.DocStatusIssued: true,
	models.DocStatusSigned: true, models.DocStatusCancelled: true,
}

func (s *documentService) apply(doc *models.AccountingDocument, req *DocumentRequest) error {
	if !docTypes[req.DocType] {
		return invalid("unknown doc_type %q", req.DocType)
	}
	if strings.TrimSpace(req.Number) == "" {
		return invalid("number is required")
	}
	if req.Amount < 0 {
		return invalid("amount cannot be negative")
	}
	if req.Status != "" && !docStatuses[req.Status] {
		return invalid("unknown status %q", req.Status)
	}
	doc.DocType = req.DocType
	doc.Number = strings.TrimSpace(req.Number)
	doc.Counterparty = req.Counterparty
	doc.Amount = req.Amount
	doc.TenderID = req.TenderID
	if req.DocDate != nil {
		doc.DocDate = dateOnly(*req.DocDate)
	} else if doc.DocDate.IsZero() {
		doc.DocDate = dateOnly(s.now())
	}
	if req.Status != "" {
		doc.Status = req.Status
	}
	return nil
}

func (s *documentService) Create(ctx context.Context, tenantID uuid.UUID, req *DocumentRequest) (*models.AccountingDocument, error) {
	doc := &models.AccountingDocument{ID: uuid.New(), TenantID: tenantID, Status: models.DocStatusDraft}
	if err := s.apply(doc, req); err != nil {
		return nil, err
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.AccountingDocument, error) {
	return s.docRepo.GetByID(ctx, tenantID, id)
}

func (s *documentService) Update(ctx context.Context, tenantID, id uuid.UUID, req *DocumentRequest) (*models.AccountingDocument, error) {
	doc, err := s.docRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(doc, req); err != nil {
		return nil, err
	}
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	doc, err := s.docRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.docRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	if doc.FileKey != nil && s.storage != nil {
		if err := s.storage.Delete(ctx, *doc.FileKey); err != nil {
			s.logger.Warn("failed to remove document file",
				zap.String("document_id", id.String()),
				zap.String("key", *doc.FileKey),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *documentService) List(ctx context.Context, tenantID uuid.UUID, filter models.DocumentFilter) ([]*models.AccountingDocument, error) {
	return s.docRepo.List(ctx, tenantID, filter)
}

// DocumentObjectKey is the storage key of a document file.
func DocumentObjectKey(tenantID, docID uuid.UUID, name string) string {
	return fmt.Sprintf("tenants/%s/documents/%s/%s", tenantID, docID, sanitizeFileName(name))
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '"', r == '/':
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "" {
		return "file"
	}
	return name
}

func (s *documentService) UploadFile(ctx context.Context, tenantID, id uuid.UUID, file *FileUpload) (*models.AccountingDocument, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	if file.Size <= 0 {
		return nil, invalid("file is empty")
	}
	if file.Size > MaxDocumentSize {
		return nil, invalid("file exceeds %d bytes", MaxDocumentSize)
	}
	doc, err := s.docRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	previous := doc.FileKey
	key := DocumentObjectKey(tenantID, id, file.Name)
	if err := s.storage.Upload(ctx, key, file.Reader, file.Size, file.ContentType); err != nil {
		return nil, fmt.Errorf("upload document file: %w", err)
	}

	name := sanitizeFileName(file.Name)
	contentType := file.ContentType
	size := file.Size
	doc.FileKey = &key
	doc.FileName = &name
	doc.ContentType = &contentType
	doc.FileSize = &size
	if err := s.docRepo.SetFile(ctx, doc); err != nil {
		return nil, err
	}

	if previous != nil && *previous != key {
		if err := s.storage.Delete(ctx, *previous); err != nil {
			s.logger.Warn("failed to remove replaced document file", zap.String("key", *previous), zap.Error(err))
		}
	}
	return doc, nil
}

func (s *documentService) FileURL(ctx context.Context, tenantID, id uuid.UUID) (string, error) {
	if s.storage == nil {
		return "", ErrNoStorage
	}
	doc, err := s.docRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	if doc.FileKey == nil {
		return "", fmt.Errorf("%w: document has no file", common.ErrNotFound)
	}
	name := ""
	if doc.FileName != nil {
		name = *doc.FileName
	}
	return s.storage.PresignedURL(ctx, *doc.FileKey, name)
}
