package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"time"

	"bizdesk/internal/analytics"
	"bizdesk/internal/assistant"
	"bizdesk/internal/common"
	"bizdesk/internal/jobs"
	"bizdesk/internal/jobs/background"
	"bizdesk/internal/middleware"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// testEnv is an echo instance wired like the API group: validator, error
// handler and an identity stub in place of JWT.
type testEnv struct {
	e        *echo.Echo
	group    *echo.Group
	rbac     *MockRBACService
	rbacMw   *middleware.RBACMiddleware
	userID   uuid.UUID
	tenantID uuid.UUID
}

func newTestEnv(withTenant bool) *testEnv {
	env := &testEnv{
		e:        echo.New(),
		rbac:     new(MockRBACService),
		userID:   uuid.New(),
		tenantID: uuid.New(),
	}
	env.e.Validator = common.NewRequestValidator()
	env.e.HTTPErrorHandler = common.HTTPErrorHandler(zap.NewNop())
	env.rbacMw = middleware.NewRBACMiddleware(env.rbac)

	env.group = env.e.Group("/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, env.userID)
			if withTenant {
				ctx = context.WithValue(ctx, common.TenantIDKey, env.tenantID)
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	return env
}

func (env *testEnv) allowAll() {
	env.rbac.On("UserHasPermission", mock.Anything, env.userID, env.tenantID, mock.Anything).Return(true, nil)
}

func (env *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			r = bytes.NewBufferString(s)
		} else {
			raw, _ := json.Marshal(body)
			r = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func errorCode(rec *httptest.ResponseRecorder) string {
	var resp common.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return resp.Error.Code
}

type MockRBACService struct {
	mock.Mock
}

func (m *MockRBACService) UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permissionName string) (bool, error) {
	args := m.Called(ctx, userID, tenantID, permissionName)
	return args.Bool(0), args.Error(1)
}

func (m *MockRBACService) GetUserPermissions(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockTenderService struct {
	mock.Mock
	services.TenderService
}

func (m *MockTenderService) List(ctx context.Context, tenantID uuid.UUID, filter models.TenderFilter) ([]*services.TenderView, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*services.TenderView), args.Error(1)
}

func (m *MockTenderService) Create(ctx context.Context, tenantID uuid.UUID, req *services.TenderRequest) (*services.TenderView, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TenderView), args.Error(1)
}

func (m *MockTenderService) Get(ctx context.Context, tenantID, id uuid.UUID) (*services.TenderView, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TenderView), args.Error(1)
}

func (m *MockTenderService) ChangeStage(ctx context.Context, tenantID, tenderID, stageID uuid.UUID, by *uuid.UUID) (*services.TenderView, error) {
	args := m.Called(ctx, tenantID, tenderID, stageID, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TenderView), args.Error(1)
}

func (m *MockTenderService) DeleteStage(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockDebtService struct {
	mock.Mock
	services.DebtService
}

func (m *MockDebtService) List(ctx context.Context, tenantID uuid.UUID, filter models.DebtFilter) ([]*models.Debt, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Debt), args.Error(1)
}

func (m *MockDebtService) Create(ctx context.Context, tenantID uuid.UUID, req *services.DebtRequest) (*models.Debt, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Debt), args.Error(1)
}

func (m *MockDebtService) RecordPayment(ctx context.Context, tenantID, debtID uuid.UUID, req *services.PaymentRequest) (*models.Debt, error) {
	args := m.Called(ctx, tenantID, debtID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Debt), args.Error(1)
}

type MockStaffService struct {
	mock.Mock
	services.StaffService
}

func (m *MockStaffService) ListEmployees(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Employee, error) {
	args := m.Called(ctx, tenantID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Employee), args.Error(1)
}

type MockWorkloadService struct {
	mock.Mock
	services.WorkloadService
}

func (m *MockWorkloadService) Utilization(ctx context.Context, tenantID, employeeID uuid.UUID, from, to time.Time) (*services.Utilization, error) {
	args := m.Called(ctx, tenantID, employeeID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Utilization), args.Error(1)
}

func (m *MockWorkloadService) TeamUtilization(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]services.Utilization, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.Utilization), args.Error(1)
}

type MockBankingService struct {
	mock.Mock
	services.BankingService
}

func (m *MockBankingService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter models.BankTransactionFilter) ([]*models.BankTransaction, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BankTransaction), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
	services.DocumentService
}

func (m *MockDocumentService) UploadFile(ctx context.Context, tenantID, id uuid.UUID, file *services.FileUpload) (*models.AccountingDocument, error) {
	args := m.Called(ctx, tenantID, id, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountingDocument), args.Error(1)
}

func (m *MockDocumentService) FileURL(ctx context.Context, tenantID, id uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID, id)
	return args.String(0), args.Error(1)
}

type MockKudirService struct {
	mock.Mock
	services.KudirService
}

func (m *MockKudirService) ImportFromBank(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.KudirEntry, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.KudirEntry), args.Error(1)
}

func (m *MockKudirService) Summary(ctx context.Context, tenantID uuid.UUID, year int) (*models.KudirSummary, error) {
	args := m.Called(ctx, tenantID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KudirSummary), args.Error(1)
}

func (m *MockKudirService) Export(ctx context.Context, tenantID uuid.UUID, year int) (*bytes.Buffer, string, error) {
	args := m.Called(ctx, tenantID, year)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*bytes.Buffer), args.String(1), args.Error(2)
}

type MockInvestorService struct {
	mock.Mock
	services.InvestorService
}

func (m *MockInvestorService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockInvestorService) PayoutSchedule(ctx context.Context, tenantID, investmentID uuid.UUID) ([]models.PayoutRow, error) {
	args := m.Called(ctx, tenantID, investmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PayoutRow), args.Error(1)
}

type MockDashboardService struct {
	mock.Mock
	analytics.DashboardService
}

func (m *MockDashboardService) Overview(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*models.FinancialOverview, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FinancialOverview), args.Error(1)
}

func (m *MockDashboardService) DebtAging(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*models.DebtAging, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DebtAging), args.Error(1)
}

type MockTenantService struct {
	mock.Mock
	services.TenantService
}

func (m *MockTenantService) Create(ctx context.Context, ownerUserID uuid.UUID, req *services.CreateTenantRequest) (*models.Tenant, error) {
	args := m.Called(ctx, ownerUserID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) Update(ctx context.Context, req *services.UpdateTenantRequest) (*models.Tenant, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

type MockAuditLogsService struct {
	mock.Mock
	services.AuditLogsService
}

func (m *MockAuditLogsService) ListAuditLogs(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

type MockChatEngine struct {
	mock.Mock
}

func (m *MockChatEngine) Chat(ctx context.Context, scope assistant.Scope, messages []assistant.Message, emit func(assistant.Event)) (*assistant.Reply, error) {
	args := m.Called(ctx, scope, messages, emit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assistant.Reply), args.Error(1)
}

type MockJobRunner struct {
	mock.Mock
}

func (m *MockJobRunner) Status() []background.JobStatus {
	return m.Called().Get(0).([]background.JobStatus)
}

func (m *MockJobRunner) RunNow(name string) error {
	return m.Called(name).Error(0)
}

type MockStaleScanner struct {
	mock.Mock
}

func (m *MockStaleScanner) ScanTenant(ctx context.Context, tenantID uuid.UUID) (*jobs.StaleScanResult, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobs.StaleScanResult), args.Error(1)
}

func (m *MockStaleScanner) LastResult(ctx context.Context, tenantID uuid.UUID) (*jobs.StaleScanResult, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobs.StaleScanResult), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
