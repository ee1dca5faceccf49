package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"bizdesk/internal/analytics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const warmupConcurrency = 5

// DashboardWarmup precomputes the default dashboards of every tenant so
// the first page load hits the cache.
type DashboardWarmup struct {
	tenants    TenantLister
	dashboards analytics.DashboardService
	logger     *zap.Logger
	now        func() time.Time
}

func NewDashboardWarmup(tenants TenantLister, dashboards analytics.DashboardService, logger *zap.Logger) *DashboardWarmup {
	return &DashboardWarmup{tenants: tenants, dashboards: dashboards, logger: logger, now: time.Now}
}

func (w *DashboardWarmup) WarmTenant(ctx context.Context, tenantID uuid.UUID) error {
	return w.dashboards.Warmup(ctx, tenantID, w.now().UTC())
}

// WarmAll warms every active tenant, at most five at a time.
func (w *DashboardWarmup) WarmAll(ctx context.Context) (int, error) {
	ids, err := w.tenants.ListIDs(ctx)
	if err != nil {
		w.logger.Error("failed to list tenants for dashboard warmup", zap.Error(err))
		return 0, err
	}

	semaphore := make(chan struct{}, warmupConcurrency)
	var wg sync.WaitGroup
	var warmed atomic.Int64

	for _, id := range ids {
		wg.Add(1)
		go func(tenantID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := w.WarmTenant(ctx, tenantID); err != nil {
				w.logger.Warn("dashboard warmup failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
				return
			}
			warmed.Add(1)
		}(id)
	}
	wg.Wait()

	w.logger.Info("dashboard warmup completed", zap.Int64("tenants", warmed.Load()), zap.Int("total", len(ids)))
	return int(warmed.Load()), nil
}
