package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/jobs"
	"bizdesk/internal/jobs/background"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateTenantWithoutMembership(t *testing.T) {
	env := newTestEnv(false)
	svc := new(MockTenantService)
	NewTenantHandlers(svc, env.rbac, env.rbacMw).RegisterOnboarding(env.group)

	svc.On("Create", mock.Anything, env.userID, mock.MatchedBy(func(r *services.CreateTenantRequest) bool {
		return r.Name == "ИП Петров" && r.Slug == "petrov"
	})).Return(&models.Tenant{ID: uuid.New(), Name: "ИП Петров", Slug: "petrov"}, nil)

	rec := env.do(http.MethodPost, "/v1/tenants", map[string]any{"name": "ИП Петров", "slug": "petrov"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestCreateTenantWhenAlreadyMember(t *testing.T) {
	env := newTestEnv(true)
	svc := new(MockTenantService)
	NewTenantHandlers(svc, env.rbac, env.rbacMw).RegisterOnboarding(env.group)

	rec := env.do(http.MethodPost, "/v1/tenants", map[string]any{"name": "Второй", "slug": "second"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTenantUsesCallerTenant(t *testing.T) {
	env := newTestEnv(true)
	env.allowAll()
	svc := new(MockTenantService)
	NewTenantHandlers(svc, env.rbac, env.rbacMw).Register(env.group)

	svc.On("Update", mock.Anything, mock.MatchedBy(func(r *services.UpdateTenantRequest) bool {
		return r.ID == env.tenantID && r.Status == models.TenantStatusActive
	})).Return(&models.Tenant{ID: env.tenantID}, nil)

	rec := env.do(http.MethodPut, "/v1/tenant", map[string]any{
		"ID":     uuid.NewString(),
		"name":   "ООО Вектор",
		"slug":   "vector",
		"status": "active",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestMyPermissions(t *testing.T) {
	env := newTestEnv(true)
	NewTenantHandlers(new(MockTenantService), env.rbac, env.rbacMw).Register(env.group)
	env.rbac.On("GetUserPermissions", mock.Anything, env.userID, env.tenantID).
		Return([]string{services.PermTendersRead, services.PermDebtsRead}, nil)

	rec := env.do(http.MethodGet, "/v1/me/permissions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"tenders:read", "debts:read"}, body.Permissions)
}

func TestListAuditLogsFilters(t *testing.T) {
	env := newTestEnv(true)
	env.allowAll()
	svc := new(MockAuditLogsService)
	NewAuditLogsHandlers(svc, env.rbacMw).Register(env.group)

	userID := uuid.New()
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	svc.On("ListAuditLogs", mock.Anything, env.tenantID, mock.MatchedBy(func(f *models.AuditLogFilters) bool {
		return f.Action != nil && *f.Action == "POST /v1/debts" &&
			f.ChangedBy != nil && *f.ChangedBy == userID &&
			f.StartDate != nil && f.StartDate.Equal(start) &&
			f.EndDate != nil && f.EndDate.Equal(end) &&
			f.Limit == 50 && f.TableName == nil
	})).Return([]*models.AuditLog{}, nil)

	rec := env.do(http.MethodGet, "/v1/audit-logs?action=POST+%2Fv1%2Fdebts&user_id="+userID.String()+"&start_date=2025-05-01&end_date=2025-05-01", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)

	rec = env.do(http.MethodGet, "/v1/audit-logs?user_id=someone", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func doRequest(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name        string
		cacheErr    error
		withStorage bool
		readyStatus int
		status      string
	}{
		{"all healthy", nil, true, http.StatusOK, "healthy"},
		{"storage not configured", nil, false, http.StatusOK, "healthy"},
		{"redis down", errors.New("connection refused"), true, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, cache, storage := new(MockPinger), new(MockPinger), new(MockPinger)
			db.On("Ping", mock.Anything).Return(nil)
			cache.On("Ping", mock.Anything).Return(tt.cacheErr)
			storage.On("Ping", mock.Anything).Return(nil)

			var storagePinger Pinger
			if tt.withStorage {
				storagePinger = storage
			}
			e := echo.New()
			NewHealthHandlers(db, cache, storagePinger, "test").Register(e)

			rec := doRequest(e, http.MethodGet, "/health")
			require.Equal(t, http.StatusOK, rec.Code)
			var health HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
			assert.Equal(t, tt.status, health.Status)
			if !tt.withStorage {
				assert.Equal(t, "disabled", health.Services["storage"])
			}

			rec = doRequest(e, http.MethodGet, "/health/ready")
			assert.Equal(t, tt.readyStatus, rec.Code)

			rec = doRequest(e, http.MethodGet, "/health/live")
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestJobHandlers(t *testing.T) {
	env := newTestEnv(true)
	env.allowAll()
	runner, stale := new(MockJobRunner), new(MockStaleScanner)
	NewJobHandlers(runner, stale, env.rbacMw).Register(env.group)

	runner.On("Status").Return([]background.JobStatus{{Name: background.JobDashboardWarmup}, {Name: background.JobStaleTenders}})
	runner.On("RunNow", background.JobStaleTenders).Return(nil)
	runner.On("RunNow", "nightly").Return(common.ErrNotFound)

	rec := env.do(http.MethodGet, "/v1/jobs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), background.JobStaleTenders)

	rec = env.do(http.MethodPost, "/v1/jobs/"+background.JobStaleTenders+"/run", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = env.do(http.MethodPost, "/v1/jobs/nightly/run", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stale.On("LastResult", mock.Anything, env.tenantID).Return(nil, nil).Once()
	rec = env.do(http.MethodGet, "/v1/jobs/stale-tenders", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	result := &jobs.StaleScanResult{TenantID: env.tenantID, Count: 1, TenderIDs: []uuid.UUID{uuid.New()}}
	stale.On("ScanTenant", mock.Anything, env.tenantID).Return(result, nil)
	rec = env.do(http.MethodPost, "/v1/jobs/stale-tenders/scan", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	runner.AssertExpectations(t)
	stale.AssertExpectations(t)
}

func TestJobHandlersSchedulerDisabled(t *testing.T) {
	env := newTestEnv(true)
	env.allowAll()
	NewJobHandlers(nil, new(MockStaleScanner), env.rbacMw).Register(env.group)

	rec := env.do(http.MethodGet, "/v1/jobs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"enabled":false`)

	rec = env.do(http.MethodPost, "/v1/jobs/dashboard-warmup/run", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
