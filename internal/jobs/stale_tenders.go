package jobs

import (
	"context"
	"time"

	"bizdesk/internal/caching"
	"bizdesk/internal/services"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const staleResultTTL = 24 * time.Hour

// TenantLister yields the tenants background jobs iterate over.
type TenantLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StaleScanResult is the last stale-tender scan of one tenant.
type StaleScanResult struct {
	TenantID  uuid.UUID   `json:"tenant_id"`
	Count     int         `json:"count"`
	TenderIDs []uuid.UUID `json:"tender_ids"`
	ScannedAt time.Time   `json:"scanned_at"`
}

type StaleTenderScanner struct {
	tenants TenantLister
	tenders services.TenderService
	cache   caching.CacheService
	logger  *zap.Logger
	now     func() time.Time
}

// NewStaleTenderScanner builds the scanner. cache may be nil; results are then only logged.
func NewStaleTenderScanner(tenants TenantLister, tenders services.TenderService, cache caching.CacheService, logger *zap.Logger) *StaleTenderScanner {
	return &StaleTenderScanner{tenants: tenants, tenders: tenders, cache: cache, logger: logger, now: time.Now}
}

// StaleResultKey is where the last scan of a tenant is kept.
func StaleResultKey(tenantID uuid.UUID) string {
	return caching.TenantKey(caching.NamespaceJobs, tenantID, "stale_tenders")
}

func (s *StaleTenderScanner) ScanTenant(ctx context.Context, tenantID uuid.UUID) (*StaleScanResult, error) {
	stale, err := s.tenders.ListStale(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := &StaleScanResult{TenantID: tenantID, Count: len(stale), TenderIDs: make([]uuid.UUID, 0, len(stale)), ScannedAt: s.now().UTC()}
	for _, t := range stale {
		result.TenderIDs = append(result.TenderIDs, t.ID)
	}

	if result.Count > 0 {
		s.logger.Info("stale tenders found",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("count", result.Count),
		)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, StaleResultKey(tenantID), result, staleResultTTL); err != nil {
			s.logger.Warn("failed to store stale scan result", zap.String("tenant_id", tenantID.String()), zap.Error(err))
		}
	}
	return result, nil
}

// LastResult returns the stored scan of a tenant, or nil when none is cached.
func (s *StaleTenderScanner) LastResult(ctx context.Context, tenantID uuid.UUID) (*StaleScanResult, error) {
	if s.cache == nil {
		return nil, nil
	}
	var result StaleScanResult
	hit, err := s.cache.GetJSON(ctx, StaleResultKey(tenantID), &result)
	if err != nil || !hit {
		return nil, err
	}
	return &result, nil
}

// ScanAll scans every active tenant and returns how many were processed.
// A failing tenant is logged and skipped.
func (s *StaleTenderScanner) ScanAll(ctx context.Context) (int, error) {
	ids, err := s.tenants.ListIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list tenants for stale scan", zap.Error(err))
		return 0, err
	}

	processed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if _, err := s.ScanTenant(ctx, id); err != nil {
			s.logger.Error("stale scan failed", zap.String("tenant_id", id.String()), zap.Error(err))
			continue
		}
		processed++
	}
	s.logger.Info("stale tender scan completed", zap.Int("tenants", processed))
	return processed, nil
}
