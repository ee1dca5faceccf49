package services

import (
	"context"
	"strings"
	"time"

	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
)

type DebtService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *DebtRequest) (*models.Debt, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Debt, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *DebtRequest) (*models.Debt, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.DebtFilter) ([]*models.Debt, error)
	RecordPayment(ctx context.Context, tenantID, debtID uuid.UUID, req *PaymentRequest) (*models.Debt, error)
	Payments(ctx context.Context, tenantID, debtID uuid.UUID) ([]*models.DebtPayment, error)
}

type DebtRequest struct {
	Direction    string     `json:"direction" validate:"required,oneof=receivable payable"`
	Counterparty string     `json:"counterparty" validate:"required"`
	Description  string     `json:"description"`
	Amount       int64      `json:"amount" validate:"gt=0"`
	Currency     string     `json:"currency" validate:"omitempty,len=3"`
	IssuedOn     *time.Time `json:"issued_on"`
	DueOn        *time.Time `json:"due_on"`
}

type PaymentRequest struct {
	Amount int64      `json:"amount" validate:"gt=0"`
	PaidOn *time.Time `json:"paid_on"`
	Note   string     `json:"note"`
}

type debtService struct {
	debtRepo repositories.DebtRepository
	now      func() time.Time
}

func NewDebtService(debtRepo repositories.DebtRepository) DebtService {
	return &debtService{debtRepo: debtRepo, now: time.Now}
}

func validateDebt(req *DebtRequest) error {
	if req.Direction != models.DebtReceivable && req.Direction != models.DebtPayable {
		return invalid("direction must be receivable or payable")
	}
	if strings.TrimSpace(req.Counterparty) == "" {
		return invalid("counterparty is required")
	}
	if req.Amount <= 0 {
		return invalid("amount must be positive")
	}
	if req.IssuedOn != nil && req.DueOn != nil && req.DueOn.Before(*req.IssuedOn) {
		return invalid("due_on cannot be before issued_on")
	}
	return nil
}

func (s *debtService) Create(ctx context.Context, tenantID uuid.UUID, req *DebtRequest) (*models.Debt, error) {
	if err := validateDebt(req); err != nil {
		return nil, err
	}
	debt := &models.Debt{
		ID:       uuid.New(),
		TenantID: tenantID,
		IssuedOn: s.now(),
		Currency: "RUB",
	}
	s.apply(debt, req)
	debt.Status = models.DebtStatusFor(debt.Amount, debt.AmountPaid)

	if err := s.debtRepo.Create(ctx, debt); err != nil {
		return nil, err
	}
	return debt, nil
}

func (s *debtService) apply(debt *models.Debt, req *DebtRequest) {
	debt.Direction = req.Direction
	debt.Counterparty = strings.TrimSpace(req.Counterparty)
	debt.Description = req.Description
	debt.Amount = req.Amount
	if req.Currency != "" {
		debt.Currency = strings.ToUpper(req.Currency)
	}
	if req.IssuedOn != nil {
		debt.IssuedOn = *req.IssuedOn
	}
	debt.DueOn = req.DueOn
}

func (s *debtService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Debt, error) {
	return s.debtRepo.GetByID(ctx, tenantID, id)
}

func (s *debtService) Update(ctx context.Context, tenantID, id uuid.UUID, req *DebtRequest) (*models.Debt, error) {
	if err := validateDebt(req); err != nil {
		return nil, err
	}
	debt, err := s.debtRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Amount < debt.AmountPaid {
		return nil, invalid("amount cannot be less than the already paid %d", debt.AmountPaid)
	}
	s.apply(debt, req)
	debt.Status = models.DebtStatusFor(debt.Amount, debt.AmountPaid)

	if err := s.debtRepo.Update(ctx, debt); err != nil {
		return nil, err
	}
	return debt, nil
}

func (s *debtService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.debtRepo.Delete(ctx, tenantID, id)
}

func (s *debtService) List(ctx context.Context, tenantID uuid.UUID, filter models.DebtFilter) ([]*models.Debt, error) {
	return s.debtRepo.List(ctx, tenantID, filter)
}

// RecordPayment applies a partial or full payment. The repository re-checks
// the bound inside the transaction, so a concurrent payment cannot overpay.
func (s *debtService) RecordPayment(ctx context.Context, tenantID, debtID uuid.UUID, req *PaymentRequest) (*models.Debt, error) {
	if req.Amount <= 0 {
		return nil, invalid("payment amount must be positive")
	}
	debt, err := s.debtRepo.GetByID(ctx, tenantID, debtID)
	if err != nil {
		return nil, err
	}
	if req.Amount > debt.Outstanding() {
		return nil, ErrOverpayment
	}

	paidOn := s.now()
	if req.PaidOn != nil {
		paidOn = *req.PaidOn
	}
	payment := &models.DebtPayment{
		ID:       uuid.New(),
		TenantID: tenantID,
		DebtID:   debtID,
		Amount:   req.Amount,
		PaidOn:   paidOn,
		Note:     req.Note,
	}
	return s.debtRepo.RecordPayment(ctx, payment)
}

func (s *debtService) Payments(ctx context.Context, tenantID, debtID uuid.UUID) ([]*models.DebtPayment, error) {
	if _, err := s.debtRepo.GetByID(ctx, tenantID, debtID); err != nil {
		return nil, err
	}
	return s.debtRepo.Payments(ctx, tenantID, debtID)
}
