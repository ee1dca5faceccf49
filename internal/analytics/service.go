package analytics

import (
	"context"
	"fmt"
	"time"

	"bizdesk/internal/caching"
	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a computed dashboard is served from cache.
const DefaultCacheTTL = 5 * time.Minute

// DashboardService computes the financial dashboards of a tenant.
type DashboardService interface {
	Overview(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*models.FinancialOverview, error)
	CashFlow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*models.CashFlow, error)
	DebtAging(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*models.DebtAging, error)
	TenderProfitability(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.TenderProfit, error)
	ExpenseBreakdown(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.CategoryTotal, error)
	// Warmup precomputes the default dashboards for the month containing now.
	Warmup(ctx context.Context, tenantID uuid.UUID, now time.Time) error
}

type dashboardService struct {
	dashboardRepo repositories.DashboardRepository
	debtRepo      repositories.DebtRepository
	kudirRepo     repositories.KudirRepository
	cache         caching.CacheService
	ttl           time.Duration
	logger        *zap.Logger
}

// NewDashboardService builds the service. cache may be nil to disable caching.
func NewDashboardService(dashboardRepo repositories.DashboardRepository, debtRepo repositories.DebtRepository,
	kudirRepo repositories.KudirRepository, cache caching.CacheService, ttl time.Duration, logger *zap.Logger) DashboardService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &dashboardService{
		dashboardRepo: dashboardRepo,
		debtRepo:      debtRepo,
		kudirRepo:     kudirRepo,
		cache:         cache,
		ttl:           ttl,
		logger:        logger,
	}
}

func checkRange(from, to time.Time) error {
	if err := common.ValidateDateRange(from, to); err != nil {
		return fmt.Errorf("%w: %s", common.ErrValidation, err.Error())
	}
	return nil
}

func rangeKey(tenantID uuid.UUID, kind string, from, to time.Time) string {
	return caching.TenantKey(caching.NamespaceDashboard, tenantID, kind, from.Format(common.DateLayout), to.Format(common.DateLayout))
}

// cached serves key from the cache or computes and stores it. Cache
// failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *dashboardService, key string, compute func() (T, error)) (T, error) {
	var value T
	if s.cache != nil {
		hit, err := s.cache.GetJSON(ctx, key, &value)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return value, nil
		}
	}

	value, err := compute()
	if err != nil {
		return value, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}

func (s *dashboardService) Overview(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*models.FinancialOverview, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return cached(ctx, s, rangeKey(tenantID, "overview", from, to), func() (*models.FinancialOverview, error) {
		o := &models.FinancialOverview{From: from, To: to}
		var err error
		if o.Inflow, o.Outflow, err = s.dashboardRepo.FlowTotals(ctx, tenantID, from, to); err != nil {
			return nil, err
		}
		if o.Receivable, o.Payable, err = s.dashboardRepo.OutstandingTotals(ctx, tenantID); err != nil {
			return nil, err
		}
		if o.OpenTenders, o.PipelineValue, err = s.dashboardRepo.OpenPipeline(ctx, tenantID); err != nil {
			return nil, err
		}
		if o.WonContractValue, err = s.dashboardRepo.WonContractValue(ctx, tenantID, from, to); err != nil {
			return nil, err
		}
		FillOverview(o)
		return o, nil
	})
}

func (s *dashboardService) CashFlow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*models.CashFlow, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return cached(ctx, s, rangeKey(tenantID, "cashflow", from, to), func() (*models.CashFlow, error) {
		opening, err := s.dashboardRepo.BalanceBefore(ctx, tenantID, from)
		if err != nil {
			return nil, err
		}
		flows, err := s.dashboardRepo.MonthlyFlows(ctx, tenantID, from, to)
		if err != nil {
			return nil, err
		}
		cf := BuildCashFlow(opening, flows, from, to)
		return &cf, nil
	})
}

func (s *dashboardService) DebtAging(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*models.DebtAging, error) {
	key := caching.TenantKey(caching.NamespaceDashboard, tenantID, "aging", asOf.Format(common.DateLayout))
	return cached(ctx, s, key, func() (*models.DebtAging, error) {
		debts, err := s.debtRepo.ListOutstanding(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		aging := AgeDebts(debts, asOf)
		return &aging, nil
	})
}

func (s *dashboardService) TenderProfitability(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.TenderProfit, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return cached(ctx, s, rangeKey(tenantID, "profitability", from, to), func() ([]models.TenderProfit, error) {
		rows, err := s.dashboardRepo.WonTenders(ctx, tenantID, from, to)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			FillProfit(&rows[i])
		}
		if rows == nil {
			rows = []models.TenderProfit{}
		}
		return rows, nil
	})
}

func (s *dashboardService) ExpenseBreakdown(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.CategoryTotal, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return cached(ctx, s, rangeKey(tenantID, "expenses", from, to), func() ([]models.CategoryTotal, error) {
		totals, err := s.kudirRepo.ExpenseByCategory(ctx, tenantID, from, to)
		if err != nil {
			return nil, err
		}
		if totals == nil {
			totals = []models.CategoryTotal{}
		}
		return totals, nil
	})
}

// MonthRange returns the first and last day of the month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	from := monthStart(t)
	return from, from.AddDate(0, 1, -1)
}

func (s *dashboardService) Warmup(ctx context.Context, tenantID uuid.UUID, now time.Time) error {
	from, to := MonthRange(now)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if _, err := s.Overview(ctx, tenantID, from, to); err != nil {
		return fmt.Errorf("overview: %w", err)
	}
	if _, err := s.CashFlow(ctx, tenantID, from.AddDate(0, -11, 0), to); err != nil {
		return fmt.Errorf("cash flow: %w", err)
	}
	if _, err := s.DebtAging(ctx, tenantID, today); err != nil {
		return fmt.Errorf("debt aging: %w", err)
	}
	if _, err := s.ExpenseBreakdown(ctx, tenantID, from, to); err != nil {
		return fmt.Errorf("expense breakdown: %w", err)
	}
	return nil
}
