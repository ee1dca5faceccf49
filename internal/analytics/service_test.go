package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"bizdesk/internal/caching"
	"bizdesk/internal/common"
	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildCashFlow_FillsGapsAndCarriesBalance(t *testing.T) {
	flows := []models.MonthFlow{
		{Month: date(2025, 1, 1), Inflow: 100_000, Outflow: 40_000},
		{Month: date(2025, 3, 1), Inflow: 10_000, Outflow: 50_000},
	}

	cf := BuildCashFlow(20_000, flows, date(2025, 1, 15), date(2025, 4, 2))

	require.Len(t, cf.Points, 4)
	assert.Equal(t, int64(20_000), cf.OpeningBalance)
	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03", "2025-04"},
		[]string{cf.Points[0].Month, cf.Points[1].Month, cf.Points[2].Month, cf.Points[3].Month})
	assert.Equal(t, int64(60_000), cf.Points[0].Net)
	assert.Equal(t, int64(80_000), cf.Points[0].Balance)
	assert.Equal(t, int64(0), cf.Points[1].Inflow)
	assert.Equal(t, int64(80_000), cf.Points[1].Balance)
	assert.Equal(t, int64(-40_000), cf.Points[2].Net)
	assert.Equal(t, int64(40_000), cf.Points[3].Balance)
}

func TestBuildCashFlow_SingleMonth(t *testing.T) {
	cf := BuildCashFlow(0, nil, date(2025, 6, 1), date(2025, 6, 30))
	require.Len(t, cf.Points, 1)
	assert.Equal(t, "2025-06", cf.Points[0].Month)
}

func TestAgingBucketFor(t *testing.T) {
	asOf := date(2025, 5, 31)
	due := func(days int) *time.Time {
		d := asOf.AddDate(0, 0, -days)
		return &d
	}

	assert.Equal(t, BucketCurrent, AgingBucketFor(nil, asOf))
	assert.Equal(t, BucketCurrent, AgingBucketFor(due(-5), asOf))
	assert.Equal(t, BucketCurrent, AgingBucketFor(due(0), asOf))
	assert.Equal(t, Bucket1To30, AgingBucketFor(due(1), asOf))
	assert.Equal(t, Bucket1To30, AgingBucketFor(due(30), asOf))
	assert.Equal(t, Bucket31To60, AgingBucketFor(due(31), asOf))
	assert.Equal(t, Bucket61To90, AgingBucketFor(due(90), asOf))
	assert.Equal(t, Bucket90Plus, AgingBucketFor(due(91), asOf))
}

func TestAgeDebts(t *testing.T) {
	asOf := date(2025, 5, 31)
	overdue := date(2025, 5, 1)
	debts := []*models.Debt{
		{Direction: models.DebtReceivable, Amount: 10_000, AmountPaid: 4_000, DueOn: &overdue},
		{Direction: models.DebtReceivable, Amount: 5_000},
		{Direction: models.DebtPayable, Amount: 7_000, DueOn: &overdue},
		{Direction: models.DebtPayable, Amount: 1_000, AmountPaid: 1_000},
	}

	aging := AgeDebts(debts, asOf)

	require.Len(t, aging.Receivable, 5)
	assert.Equal(t, models.AgingBucket{Label: BucketCurrent, Amount: 5_000, Count: 1}, aging.Receivable[0])
	assert.Equal(t, models.AgingBucket{Label: Bucket1To30, Amount: 6_000, Count: 1}, aging.Receivable[1])
	assert.Equal(t, models.AgingBucket{Label: Bucket1To30, Amount: 7_000, Count: 1}, aging.Payable[1])
	assert.Equal(t, 0, aging.Payable[0].Count)
}

func TestFillProfit(t *testing.T) {
	estimated := models.TenderProfit{ContractPrice: 1_000_000, CostEstimate: 750_000}
	FillProfit(&estimated)
	assert.Equal(t, int64(250_000), estimated.Profit)
	assert.Equal(t, 25.0, estimated.MarginPercent)

	actual := models.TenderProfit{ContractPrice: 1_000_000, CostEstimate: 750_000, LinkedExpenses: 900_000}
	FillProfit(&actual)
	assert.Equal(t, int64(100_000), actual.Profit)
	assert.Equal(t, 10.0, actual.MarginPercent)

	empty := models.TenderProfit{}
	FillProfit(&empty)
	assert.Equal(t, 0.0, empty.MarginPercent)
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(time.Date(2024, 2, 14, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, date(2024, 2, 1), from)
	assert.Equal(t, date(2024, 2, 29), to)
}

type DashboardServiceTestSuite struct {
	suite.Suite
	dashboards *MockDashboardRepository
	debts      *MockDebtRepository
	kudir      *MockKudirRepository
	cache      *MockCacheService
	service    DashboardService
	tenantID   uuid.UUID
	from, to   time.Time
}

func (suite *DashboardServiceTestSuite) SetupTest() {
	suite.dashboards = &MockDashboardRepository{}
	suite.debts = &MockDebtRepository{}
	suite.kudir = &MockKudirRepository{}
	suite.cache = &MockCacheService{}
	suite.service = NewDashboardService(suite.dashboards, suite.debts, suite.kudir, suite.cache, 0, zap.NewNop())
	suite.tenantID = uuid.New()
	suite.from = date(2025, 1, 1)
	suite.to = date(2025, 1, 31)
}

func (suite *DashboardServiceTestSuite) TearDownTest() {
	suite.dashboards.AssertExpectations(suite.T())
	suite.debts.AssertExpectations(suite.T())
	suite.kudir.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
}

func TestDashboardServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DashboardServiceTestSuite))
}

func (suite *DashboardServiceTestSuite) overviewKey() string {
	return caching.TenantKey(caching.NamespaceDashboard, suite.tenantID, "overview", "2025-01-01", "2025-01-31")
}

func (suite *DashboardServiceTestSuite) TestOverview_ComputesAndCaches() {
	ctx := context.Background()
	key := suite.overviewKey()

	suite.cache.On("GetJSON", ctx, key, mock.Anything).Return(false, nil)
	suite.dashboards.On("FlowTotals", ctx, suite.tenantID, suite.from, suite.to).Return(int64(500_000), int64(300_000), nil)
	suite.dashboards.On("OutstandingTotals", ctx, suite.tenantID).Return(int64(120_000), int64(80_000), nil)
	suite.dashboards.On("OpenPipeline", ctx, suite.tenantID).Return(3, int64(9_000_000), nil)
	suite.dashboards.On("WonContractValue", ctx, suite.tenantID, suite.from, suite.to).Return(int64(2_000_000), nil)
	suite.cache.On("SetJSON", ctx, key, mock.AnythingOfType("*models.FinancialOverview"), DefaultCacheTTL).Return(nil)

	o, err := suite.service.Overview(ctx, suite.tenantID, suite.from, suite.to)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(200_000), o.Profit)
	assert.Equal(suite.T(), 40.0, o.MarginPercent)
	assert.Equal(suite.T(), 3, o.OpenTenders)
	assert.Equal(suite.T(), int64(2_000_000), o.WonContractValue)
}

func (suite *DashboardServiceTestSuite) TestOverview_CacheHit() {
	ctx := context.Background()
	suite.cache.On("GetJSON", ctx, suite.overviewKey(), mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(**models.FinancialOverview)
			*dest = &models.FinancialOverview{Inflow: 42}
		}).
		Return(true, nil)

	o, err := suite.service.Overview(ctx, suite.tenantID, suite.from, suite.to)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(42), o.Inflow)
}

func (suite *DashboardServiceTestSuite) TestOverview_CacheErrorFallsThrough() {
	ctx := context.Background()
	key := suite.overviewKey()
	suite.cache.On("GetJSON", ctx, key, mock.Anything).Return(false, errors.New("redis down"))
	suite.dashboards.On("FlowTotals", ctx, suite.tenantID, suite.from, suite.to).Return(int64(0), int64(0), nil)
	suite.dashboards.On("OutstandingTotals", ctx, suite.tenantID).Return(int64(0), int64(0), nil)
	suite.dashboards.On("OpenPipeline", ctx, suite.tenantID).Return(0, int64(0), nil)
	suite.dashboards.On("WonContractValue", ctx, suite.tenantID, suite.from, suite.to).Return(int64(0), nil)
	suite.cache.On("SetJSON", ctx, key, mock.Anything, DefaultCacheTTL).Return(errors.New("redis down"))

	o, err := suite.service.Overview(ctx, suite.tenantID, suite.from, suite.to)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, o.MarginPercent)
}

func (suite *DashboardServiceTestSuite) TestOverview_InvalidRange() {
	_, err := suite.service.Overview(context.Background(), suite.tenantID, suite.to, suite.from)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *DashboardServiceTestSuite) TestCashFlow() {
	ctx := context.Background()
	suite.cache.On("GetJSON", ctx, mock.Anything, mock.Anything).Return(false, nil)
	suite.dashboards.On("BalanceBefore", ctx, suite.tenantID, suite.from).Return(int64(1_000), nil)
	suite.dashboards.On("MonthlyFlows", ctx, suite.tenantID, suite.from, suite.to).
		Return([]models.MonthFlow{{Month: suite.from, Inflow: 500, Outflow: 200}}, nil)
	suite.cache.On("SetJSON", ctx, mock.Anything, mock.Anything, DefaultCacheTTL).Return(nil)

	cf, err := suite.service.CashFlow(ctx, suite.tenantID, suite.from, suite.to)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), cf.Points, 1)
	assert.Equal(suite.T(), int64(1_300), cf.Points[0].Balance)
}

func (suite *DashboardServiceTestSuite) TestTenderProfitability_RepoError() {
	ctx := context.Background()
	suite.cache.On("GetJSON", ctx, mock.Anything, mock.Anything).Return(false, nil)
	suite.dashboards.On("WonTenders", ctx, suite.tenantID, suite.from, suite.to).Return(nil, errors.New("boom"))

	_, err := suite.service.TenderProfitability(ctx, suite.tenantID, suite.from, suite.to)
	assert.ErrorContains(suite.T(), err, "boom")
}

func (suite *DashboardServiceTestSuite) TestWarmup() {
	ctx := context.Background()
	now := time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC)
	suite.cache.On("GetJSON", ctx, mock.Anything, mock.Anything).Return(true, nil)

	require.NoError(suite.T(), suite.service.Warmup(ctx, suite.tenantID, now))
	suite.cache.AssertNumberOfCalls(suite.T(), "GetJSON", 4)
}

func TestDashboardService_NoCache(t *testing.T) {
	debts := &MockDebtRepository{}
	svc := NewDashboardService(&MockDashboardRepository{}, debts, &MockKudirRepository{}, nil, time.Minute, zap.NewNop())
	tenantID := uuid.New()
	asOf := date(2025, 3, 1)
	debts.On("ListOutstanding", mock.Anything, tenantID).Return([]*models.Debt{{Direction: models.DebtReceivable, Amount: 100}}, nil)

	aging, err := svc.DebtAging(context.Background(), tenantID, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(100), aging.Receivable[0].Amount)
	debts.AssertExpectations(t)
}
