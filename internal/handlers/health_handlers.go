package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	storage Pinger
	version string
	started time.Time
}

// NewHealthHandlers creates a new health handlers instance. cache and
// storage may be nil when those backends are not configured.
func NewHealthHandlers(db, cache, storage Pinger, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		storage: storage,
		version: version,
		started: time.Now(),
	}
}

func (h *HealthHandlers) Register(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)
	e.GET("/health/ready", h.ReadinessCheck)
	e.GET("/health/live", h.LivenessCheck)
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

func check(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func (h *HealthHandlers) collect(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services: map[string]string{
			"database": check(ctx, h.db),
			"redis":    check(ctx, h.cache),
			"storage":  check(ctx, h.storage),
		},
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Version: h.version,
	}
	for _, s := range health.Services {
		if s == "unhealthy" {
			health.Status = "degraded"
		}
	}
	return health
}

// HealthCheck godoc
// @Summary      Service health
// @Description  Reports database, redis and object storage reachability. Always 200; see status.
// @Tags         platform
// @Produce      json
// @Success      200  {object}  HealthStatus
// @Router       /health [get]
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, h.collect(c.Request().Context()))
}

// ReadinessCheck is 503 while any configured dependency is unreachable.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	health := h.collect(c.Request().Context())
	if health.Status != "healthy" {
		health.Status = "not_ready"
		return c.JSON(http.StatusServiceUnavailable, health)
	}
	health.Status = "ready"
	return c.JSON(http.StatusOK, health)
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
