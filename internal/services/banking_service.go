package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
)

type BankingService interface {
	CreateAccount(ctx context.Context, tenantID uuid.UUID, req *BankAccountRequest) (*models.BankAccount, error)
	GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*models.BankAccount, error)
	UpdateAccount(ctx context.Context, tenantID, id uuid.UUID, req *BankAccountRequest) (*models.BankAccount, error)
	DeleteAccount(ctx context.Context, tenantID, id uuid.UUID) error
	ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.BankAccount, error)
	Balances(ctx context.Context, tenantID uuid.UUID) ([]*models.AccountBalance, error)

	CreateTransaction(ctx context.Context, tenantID uuid.UUID, req *BankTransactionRequest) (*models.BankTransaction, error)
	GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*models.BankTransaction, error)
	UpdateTransaction(ctx context.Context, tenantID, id uuid.UUID, req *BankTransactionRequest) (*models.BankTransaction, error)
	DeleteTransaction(ctx context.Context, tenantID, id uuid.UUID) error
	ListTransactions(ctx context.Context, tenantID uuid.UUID, filter models.BankTransactionFilter) ([]*models.BankTransaction, error)
}

type BankAccountRequest struct {
	Name           string `json:"name" validate:"required"`
	BankName       string `json:"bank_name"`
	AccountNumber  string `json:"account_number" validate:"omitempty,numeric,len=20"`
	BIC            string `json:"bic" validate:"omitempty,numeric,len=9"`
	Currency       string `json:"currency" validate:"omitempty,len=3"`
	OpeningBalance int64  `json:"opening_balance"`
}

type BankTransactionRequest struct {
	AccountID     uuid.UUID  `json:"account_id" validate:"required"`
	Direction     string     `json:"direction" validate:"required,oneof=in out"`
	Amount        int64      `json:"amount" validate:"gt=0"`
	Counterparty  string     `json:"counterparty"`
	Purpose       string     `json:"purpose"`
	Category      string     `json:"category"`
	OperationDate *time.Time `json:"operation_date"`
	TenderID      *uuid.UUID `json:"tender_id"`
}

type bankingService struct {
	bankRepo   repositories.BankRepository
	tenderRepo repositories.TenderRepository
	now        func() time.Time
}

func NewBankingService(bankRepo repositories.BankRepository, tenderRepo repositories.TenderRepository) BankingService {
	return &bankingService{bankRepo: bankRepo, tenderRepo: tenderRepo, now: time.Now}
}

func applyAccount(a *models.BankAccount, req *BankAccountRequest) {
	a.Name = strings.TrimSpace(req.Name)
	a.BankName = req.BankName
	a.AccountNumber = req.AccountNumber
	a.BIC = req.BIC
	a.OpeningBalance = req.OpeningBalance
	if req.Currency != "" {
		a.Currency = strings.ToUpper(req.Currency)
	}
}

func (s *bankingService) CreateAccount(ctx context.Context, tenantID uuid.UUID, req *BankAccountRequest) (*models.BankAccount, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}
	account := &models.BankAccount{ID: uuid.New(), TenantID: tenantID, Currency: "RUB"}
	applyAccount(account, req)
	if err := s.bankRepo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *bankingService) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*models.BankAccount, error) {
	return s.bankRepo.GetAccount(ctx, tenantID, id)
}

func (s *bankingService) UpdateAccount(ctx context.Context, tenantID, id uuid.UUID, req *BankAccountRequest) (*models.BankAccount, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}
	account, err := s.bankRepo.GetAccount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyAccount(account, req)
	if err := s.bankRepo.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *bankingService) DeleteAccount(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.bankRepo.DeleteAccount(ctx, tenantID, id)
}

func (s *bankingService) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.BankAccount, error) {
	return s.bankRepo.ListAccounts(ctx, tenantID)
}

func (s *bankingService) Balances(ctx context.Context, tenantID uuid.UUID) ([]*models.AccountBalance, error) {
	return s.bankRepo.Balances(ctx, tenantID)
}

func (s *bankingService) checkTransaction(ctx context.Context, tenantID uuid.UUID, req *BankTransactionRequest) error {
	if req.Direction != models.DirectionIn && req.Direction != models.DirectionOut {
		return invalid("direction must be in or out")
	}
	if req.Amount <= 0 {
		return invalid("amount must be positive")
	}
	if _, err := s.bankRepo.GetAccount(ctx, tenantID, req.AccountID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return invalid("account_id does not reference an account")
		}
		return err
	}
	if req.TenderID != nil {
		if _, err := s.tenderRepo.GetByID(ctx, tenantID, *req.TenderID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return invalid("tender_id does not reference a tender")
			}
			return err
		}
	}
	return nil
}

func (s *bankingService) applyTransaction(t *models.BankTransaction, req *BankTransactionRequest) {
	t.AccountID = req.AccountID
	t.Direction = req.Direction
	t.Amount = req.Amount
	t.Counterparty = strings.TrimSpace(req.Counterparty)
	t.Purpose = req.Purpose
	t.Category = strings.TrimSpace(req.Category)
	t.TenderID = req.TenderID
	if req.OperationDate != nil {
		t.OperationDate = dateOnly(*req.OperationDate)
	} else if t.OperationDate.IsZero() {
		t.OperationDate = dateOnly(s.now())
	}
}

func (s *bankingService) CreateTransaction(ctx context.Context, tenantID uuid.UUID, req *BankTransactionRequest) (*models.BankTransaction, error) {
	if err := s.checkTransaction(ctx, tenantID, req); err != nil {
		return nil, err
	}
	t := &models.BankTransaction{ID: uuid.New(), TenantID: tenantID}
	s.applyTransaction(t, req)
	if err := s.bankRepo.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *bankingService) GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*models.BankTransaction, error) {
	return s.bankRepo.GetTransaction(ctx, tenantID, id)
}

func (s *bankingService) UpdateTransaction(ctx context.Context, tenantID, id uuid.UUID, req *BankTransactionRequest) (*models.BankTransaction, error) {
	if err := s.checkTransaction(ctx, tenantID, req); err != nil {
		return nil, err
	}
	t, err := s.bankRepo.GetTransaction(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.applyTransaction(t, req)
	if err := s.bankRepo.UpdateTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *bankingService) DeleteTransaction(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.bankRepo.DeleteTransaction(ctx, tenantID, id)
}

func (s *bankingService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter models.BankTransactionFilter) ([]*models.BankTransaction, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, invalid("to cannot be before from")
	}
	return s.bankRepo.ListTransactions(ctx, tenantID, filter)
}
