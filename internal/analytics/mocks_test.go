package analytics

import (
	"context"
	"time"

	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) FlowTotals(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, int64, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockDashboardRepository) OutstandingTotals(ctx context.Context, tenantID uuid.UUID) (int64, int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockDashboardRepository) OpenPipeline(ctx context.Context, tenantID uuid.UUID) (int, int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockDashboardRepository) WonContractValue(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDashboardRepository) MonthlyFlows(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.MonthFlow, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MonthFlow), args.Error(1)
}

func (m *MockDashboardRepository) BalanceBefore(ctx context.Context, tenantID uuid.UUID, before time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDashboardRepository) WonTenders(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.TenderProfit, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TenderProfit), args.Error(1)
}

// MockDebtRepository implements only what the dashboards read.
type MockDebtRepository struct {
	mock.Mock
	repositories.DebtRepository
}

func (m *MockDebtRepository) ListOutstanding(ctx context.Context, tenantID uuid.UUID) ([]*models.Debt, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Debt), args.Error(1)
}

type MockKudirRepository struct {
	mock.Mock
	repositories.KudirRepository
}

func (m *MockKudirRepository) ExpenseByCategory(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.CategoryTotal, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CategoryTotal), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	return m.Called(ctx, tenantID).Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
