package services

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KudirService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *KudirEntryRequest) (*models.KudirEntry, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.KudirEntry, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *KudirEntryRequest) (*models.KudirEntry, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.KudirFilter) ([]*models.KudirEntry, error)
	// ImportFromBank ledgers the bank transactions in range that have no
	// entry yet and returns the created entries.
	ImportFromBank(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.KudirEntry, error)
	Summary(ctx context.Context, tenantID uuid.UUID, year int) (*models.KudirSummary, error)
	ExpenseBreakdown(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.CategoryTotal, error)
	Export(ctx context.Context, tenantID uuid.UUID, year int) (*bytes.Buffer, string, error)
}

type KudirEntryRequest struct {
	EntryDate   time.Time `json:"entry_date" validate:"required"`
	DocumentRef string    `json:"document_ref"`
	Description string    `json:"description" validate:"required"`
	Income      int64     `json:"income" validate:"gte=0"`
	Expense     int64     `json:"expense" validate:"gte=0"`
	Category    string    `json:"category"`
}

type kudirService struct {
	kudirRepo repositories.KudirRepository
	bankRepo  repositories.BankRepository
	logger    *zap.Logger
}

func NewKudirService(kudirRepo repositories.KudirRepository, bankRepo repositories.BankRepository, logger *zap.Logger) KudirService {
	return &kudirService{kudirRepo: kudirRepo, bankRepo: bankRepo, logger: logger}
}

func validateKudir(req *KudirEntryRequest) error {
	if req.EntryDate.IsZero() {
		return invalid("entry_date is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return invalid("description is required")
	}
	if req.Income < 0 || req.Expense < 0 {
		return invalid("amounts cannot be negative")
	}
	if (req.Income > 0) == (req.Expense > 0) {
		return invalid("exactly one of income or expense must be positive")
	}
	return nil
}

func applyKudir(e *models.KudirEntry, req *KudirEntryRequest) {
	e.EntryDate = dateOnly(req.EntryDate)
	e.DocumentRef = strings.TrimSpace(req.DocumentRef)
	e.Description = strings.TrimSpace(req.Description)
	e.Income = req.Income
	e.Expense = req.Expense
	e.Category = strings.TrimSpace(req.Category)
}

func (s *kudirService) Create(ctx context.Context, tenantID uuid.UUID, req *KudirEntryRequest) (*models.KudirEntry, error) {
	if err := validateKudir(req); err != nil {
		return nil, err
	}
	e := &models.KudirEntry{ID: uuid.New(), TenantID: tenantID}
	applyKudir(e, req)
	if err := s.kudirRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *kudirService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.KudirEntry, error) {
	return s.kudirRepo.GetByID(ctx, tenantID, id)
}

func (s *kudirService) Update(ctx context.Context, tenantID, id uuid.UUID, req *KudirEntryRequest) (*models.KudirEntry, error) {
	if err := validateKudir(req); err != nil {
		return nil, err
	}
	e, err := s.kudirRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyKudir(e, req)
	if err := s.kudirRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *kudirService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.kudirRepo.Delete(ctx, tenantID, id)
}

func (s *kudirService) List(ctx context.Context, tenantID uuid.UUID, filter models.KudirFilter) ([]*models.KudirEntry, error) {
	return s.kudirRepo.List(ctx, tenantID, filter)
}

// KudirEntryFromTransaction maps an incoming payment to income and an
// outgoing one to expense.
func KudirEntryFromTransaction(t *models.BankTransaction) *models.KudirEntry {
	e := &models.KudirEntry{
		ID:          uuid.New(),
		TenantID:    t.TenantID,
		EntryDate:   t.OperationDate,
		DocumentRef: "Банковская выписка",
		Category:    t.Category,
	}
	txID := t.ID
	e.BankTransactionID = &txID

	desc := strings.TrimSpace(t.Purpose)
	if t.Counterparty != "" {
		if desc == "" {
			desc = t.Counterparty
		} else {
			desc = t.Counterparty + ": " + desc
		}
	}
	if desc == "" {
		desc = "Банковская операция"
	}
	e.Description = desc

	if t.Direction == models.DirectionIn {
		e.Income = t.Amount
	} else {
		e.Expense = t.Amount
	}
	return e
}

func (s *kudirService) ImportFromBank(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.KudirEntry, error) {
	if to.Before(from) {
		return nil, invalid("to cannot be before from")
	}
	txs, err := s.bankRepo.ListUnledgered(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	entries := make([]*models.KudirEntry, 0, len(txs))
	for _, t := range txs {
		entries = append(entries, KudirEntryFromTransaction(t))
	}
	if len(entries) == 0 {
		return entries, nil
	}
	if err := s.kudirRepo.CreateBatch(ctx, entries); err != nil {
		return nil, err
	}
	s.logger.Info("imported bank transactions into ledger",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("count", len(entries)),
	)
	return entries, nil
}

func yearBounds(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, -1)
}

func (s *kudirService) Summary(ctx context.Context, tenantID uuid.UUID, year int) (*models.KudirSummary, error) {
	if year < 2000 || year > 2100 {
		return nil, invalid("year %d is out of range", year)
	}
	totals, err := s.kudirRepo.QuarterTotals(ctx, tenantID, year)
	if err != nil {
		return nil, err
	}
	summary := &models.KudirSummary{Year: year, Quarters: make([]models.KudirQuarter, 4)}
	for i := range summary.Quarters {
		summary.Quarters[i].Quarter = i + 1
	}
	for _, q := range totals {
		if q.Quarter < 1 || q.Quarter > 4 {
			continue
		}
		summary.Quarters[q.Quarter-1] = q
		summary.TotalIncome += q.Income
		summary.TotalExpense += q.Expense
	}

	from, to := yearBounds(year)
	summary.ExpenseByCategory, err = s.kudirRepo.ExpenseByCategory(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *kudirService) ExpenseBreakdown(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.CategoryTotal, error) {
	if to.Before(from) {
		return nil, invalid("to cannot be before from")
	}
	return s.kudirRepo.ExpenseByCategory(ctx, tenantID, from, to)
}

func (s *kudirService) Export(ctx context.Context, tenantID uuid.UUID, year int) (*bytes.Buffer, string, error) {
	summary, err := s.Summary(ctx, tenantID, year)
	if err != nil {
		return nil, "", err
	}
	from, to := yearBounds(year)
	entries, err := s.kudirRepo.List(ctx, tenantID, models.KudirFilter{From: &from, To: &to})
	if err != nil {
		return nil, "", err
	}
	buf, err := RenderKudir(year, entries, summary)
	if err != nil {
		s.logger.Error("failed to render kudir workbook", zap.Int("year", year), zap.Error(err))
		return nil, "", err
	}
	return buf, "kudir_" + strconv.Itoa(year) + ".xlsx", nil
}
