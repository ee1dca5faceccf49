package services

import (
	"context"
	"io"
	"time"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) CreateWithDefaults(ctx context.Context, tenant *models.Tenant, stages []*models.TenderStage, owner *models.Role, employee *models.Employee) error {
	args := m.Called(ctx, tenant, stages, owner, employee)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTenantRepository) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *models.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *MockRoleRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Role, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Role, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) GetForUser(ctx context.Context, tenantID, userID uuid.UUID) (*models.Role, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) Update(ctx context.Context, role *models.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *MockRoleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockRoleRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Role, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Role), args.Error(1)
}

type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	return m.Called(ctx, employee).Error(0)
}

func (m *MockEmployeeRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Employee, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	return m.Called(ctx, employee).Error(0)
}

func (m *MockEmployeeRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockEmployeeRepository) List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Employee, error) {
	args := m.Called(ctx, tenantID, status, limit, offset)
	return args.Get(0).([]*models.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) TenantIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockTenderRepository struct {
	mock.Mock
}

func (m *MockTenderRepository) Create(ctx context.Context, tender *models.Tender) error {
	return m.Called(ctx, tender).Error(0)
}

func (m *MockTenderRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Tender, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tender), args.Error(1)
}

func (m *MockTenderRepository) Update(ctx context.Context, tender *models.Tender) error {
	return m.Called(ctx, tender).Error(0)
}

func (m *MockTenderRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockTenderRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.TenderFilter) ([]*models.Tender, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Tender), args.Error(1)
}

func (m *MockTenderRepository) ListOpen(ctx context.Context, tenantID uuid.UUID) ([]*models.Tender, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*models.Tender), args.Error(1)
}

func (m *MockTenderRepository) ChangeStage(ctx context.Context, change *models.TenderStageChange) error {
	return m.Called(ctx, change).Error(0)
}

func (m *MockTenderRepository) History(ctx context.Context, tenantID, tenderID uuid.UUID) ([]*models.TenderStageChange, error) {
	args := m.Called(ctx, tenantID, tenderID)
	return args.Get(0).([]*models.TenderStageChange), args.Error(1)
}

type MockTenderStageRepository struct {
	mock.Mock
}

func (m *MockTenderStageRepository) Create(ctx context.Context, stage *models.TenderStage) error {
	return m.Called(ctx, stage).Error(0)
}

func (m *MockTenderStageRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.TenderStage, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenderStage), args.Error(1)
}

func (m *MockTenderStageRepository) Update(ctx context.Context, stage *models.TenderStage) error {
	return m.Called(ctx, stage).Error(0)
}

func (m *MockTenderStageRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockTenderStageRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*models.TenderStage, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*models.TenderStage), args.Error(1)
}

func (m *MockTenderStageRepository) CountTenders(ctx context.Context, tenantID, stageID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID, stageID)
	return args.Int(0), args.Error(1)
}

type MockDebtRepository struct {
	mock.Mock
}

func (m *MockDebtRepository) Create(ctx context.Context, debt *models.Debt) error {
	return m.Called(ctx, debt).Error(0)
}

func (m *MockDebtRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Debt, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Debt), args.Error(1)
}

func (m *MockDebtRepository) Update(ctx context.Context, debt *models.Debt) error {
	return m.Called(ctx, debt).Error(0)
}

func (m *MockDebtRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockDebtRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.DebtFilter) ([]*models.Debt, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Debt), args.Error(1)
}

func (m *MockDebtRepository) ListOutstanding(ctx context.Context, tenantID uuid.UUID) ([]*models.Debt, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*models.Debt), args.Error(1)
}

func (m *MockDebtRepository) RecordPayment(ctx context.Context, payment *models.DebtPayment) (*models.Debt, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Debt), args.Error(1)
}

func (m *MockDebtRepository) Payments(ctx context.Context, tenantID, debtID uuid.UUID) ([]*models.DebtPayment, error) {
	args := m.Called(ctx, tenantID, debtID)
	return args.Get(0).([]*models.DebtPayment), args.Error(1)
}

type MockWorkloadRepository struct {
	mock.Mock
}

func (m *MockWorkloadRepository) Create(ctx context.Context, a *models.WorkloadAllocation) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockWorkloadRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkloadAllocation, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkloadAllocation), args.Error(1)
}

func (m *MockWorkloadRepository) Update(ctx context.Context, a *models.WorkloadAllocation) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockWorkloadRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockWorkloadRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.WorkloadFilter) ([]*models.WorkloadAllocation, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.WorkloadAllocation), args.Error(1)
}

func (m *MockWorkloadRepository) Overlapping(ctx context.Context, tenantID uuid.UUID, employeeID *uuid.UUID, from, to time.Time) ([]*models.WorkloadAllocation, error) {
	args := m.Called(ctx, tenantID, employeeID, from, to)
	return args.Get(0).([]*models.WorkloadAllocation), args.Error(1)
}

type MockBankRepository struct {
	mock.Mock
}

func (m *MockBankRepository) CreateAccount(ctx context.Context, a *models.BankAccount) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockBankRepository) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*models.BankAccount, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BankAccount), args.Error(1)
}

func (m *MockBankRepository) UpdateAccount(ctx context.Context, a *models.BankAccount) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockBankRepository) DeleteAccount(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockBankRepository) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.BankAccount, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*models.BankAccount), args.Error(1)
}

func (m *MockBankRepository) Balances(ctx context.Context, tenantID uuid.UUID) ([]*models.AccountBalance, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*models.AccountBalance), args.Error(1)
}

func (m *MockBankRepository) CreateTransaction(ctx context.Context, t *models.BankTransaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockBankRepository) GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*models.BankTransaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BankTransaction), args.Error(1)
}

func (m *MockBankRepository) UpdateTransaction(ctx context.Context, t *models.BankTransaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockBankRepository) DeleteTransaction(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockBankRepository) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter models.BankTransactionFilter) ([]*models.BankTransaction, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.BankTransaction), args.Error(1)
}

func (m *MockBankRepository) ListUnledgered(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.BankTransaction, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]*models.BankTransaction), args.Error(1)
}

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *models.AccountingDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AccountingDocument, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountingDocument), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *models.AccountingDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) SetFile(ctx context.Context, doc *models.AccountingDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockDocumentRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.DocumentFilter) ([]*models.AccountingDocument, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.AccountingDocument), args.Error(1)
}

type MockKudirRepository struct {
	mock.Mock
}

func (m *MockKudirRepository) Create(ctx context.Context, e *models.KudirEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockKudirRepository) CreateBatch(ctx context.Context, entries []*models.KudirEntry) error {
	return m.Called(ctx, entries).Error(0)
}

func (m *MockKudirRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.KudirEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KudirEntry), args.Error(1)
}

func (m *MockKudirRepository) Update(ctx context.Context, e *models.KudirEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockKudirRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockKudirRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.KudirFilter) ([]*models.KudirEntry, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.KudirEntry), args.Error(1)
}

func (m *MockKudirRepository) QuarterTotals(ctx context.Context, tenantID uuid.UUID, year int) ([]models.KudirQuarter, error) {
	args := m.Called(ctx, tenantID, year)
	return args.Get(0).([]models.KudirQuarter), args.Error(1)
}

func (m *MockKudirRepository) ExpenseByCategory(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.CategoryTotal, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]models.CategoryTotal), args.Error(1)
}

type MockInvestorRepository struct {
	mock.Mock
}

func (m *MockInvestorRepository) Create(ctx context.Context, inv *models.Investor) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvestorRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Investor, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Investor), args.Error(1)
}

func (m *MockInvestorRepository) Update(ctx context.Context, inv *models.Investor) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvestorRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockInvestorRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Investor, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Investor), args.Error(1)
}

func (m *MockInvestorRepository) CreateInvestment(ctx context.Context, i *models.Investment) error {
	return m.Called(ctx, i).Error(0)
}

func (m *MockInvestorRepository) GetInvestment(ctx context.Context, tenantID, id uuid.UUID) (*models.Investment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Investment), args.Error(1)
}

func (m *MockInvestorRepository) UpdateInvestment(ctx context.Context, i *models.Investment) error {
	return m.Called(ctx, i).Error(0)
}

func (m *MockInvestorRepository) DeleteInvestment(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockInvestorRepository) ListInvestments(ctx context.Context, tenantID uuid.UUID, investorID *uuid.UUID) ([]*models.Investment, error) {
	args := m.Called(ctx, tenantID, investorID)
	return args.Get(0).([]*models.Investment), args.Error(1)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, auditLog *models.AuditLog) error {
	return m.Called(ctx, auditLog).Error(0)
}

func (m *MockAuditLogsRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, filters)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Upload(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	return m.Called(ctx, objectName, reader, objectSize, contentType).Error(0)
}

func (m *MockStorageService) PresignedURL(ctx context.Context, objectName, downloadName string) (string, error) {
	args := m.Called(ctx, objectName, downloadName)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Delete(ctx context.Context, objectName string) error {
	return m.Called(ctx, objectName).Error(0)
}

func (m *MockStorageService) EnsureBucket(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStorageService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
