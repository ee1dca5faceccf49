package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bizdesk/internal/caching"
	"bizdesk/internal/common"
	"bizdesk/internal/config"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type MockTenantResolver struct {
	mock.Mock
}

func (m *MockTenantResolver) TenantIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(uuid.UUID), args.Error(1)
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

type MockAuditLogsService struct {
	mock.Mock
	services.AuditLogsService
}

func (m *MockAuditLogsService) LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, newValues models.JSONB) error {
	args := m.Called(ctx, tenantID, tableName, recordID, action, changedBy, newValues)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
	caching.CacheService
}

func (m *MockCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	return m.Called(ctx, tenantID).Error(0)
}

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newClaims(userID uuid.UUID, tenantID string) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: tenantID,
	}
}

// withIdentity stores user and tenant the way IdentityContext does.
func withIdentity(req *http.Request, userID, tenantID uuid.UUID) *http.Request {
	ctx := context.WithValue(req.Context(), common.UserIDKey, userID)
	ctx = context.WithValue(ctx, common.TenantIDKey, tenantID)
	return req.WithContext(ctx)
}

type AuthTestSuite struct {
	suite.Suite
	e        *echo.Echo
	resolver *MockTenantResolver
}

func (suite *AuthTestSuite) SetupTest() {
	keyFunc, cleanup, err := NewKeyfunc(config.AuthConfig{JWTSecret: testSecret}, zap.NewNop())
	require.NoError(suite.T(), err)
	suite.T().Cleanup(cleanup)

	suite.resolver = &MockTenantResolver{}
	suite.e = echo.New()
	suite.e.HTTPErrorHandler = common.HTTPErrorHandler(zap.NewNop())

	whoami := func(c echo.Context) error {
		userID, _ := common.GetUserIDFromContext(c.Request().Context())
		tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
		if !ok {
			return c.String(http.StatusOK, userID.String()+"|")
		}
		return c.String(http.StatusOK, userID.String()+"|"+tenantID.String())
	}
	auth := JWTMiddleware(keyFunc, "sb-access-token")
	suite.e.GET("/me", whoami, auth, IdentityContext(suite.resolver, true))
	suite.e.POST("/tenants", whoami, auth, IdentityContext(suite.resolver, false))
}

func (suite *AuthTestSuite) TearDownTest() {
	suite.resolver.AssertExpectations(suite.T())
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}

func (suite *AuthTestSuite) serve(method, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	suite.e.ServeHTTP(rec, req)
	return rec
}

func (suite *AuthTestSuite) TestMissingToken() {
	rec := suite.serve(http.MethodGet, "/me", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "Missing token")
}

func (suite *AuthTestSuite) TestWrongSignature() {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, newClaims(uuid.New(), "")).SignedString([]byte("another-secret-another-secret"))
	require.NoError(suite.T(), err)

	rec := suite.serve(http.MethodGet, "/me", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "Invalid token")
}

func (suite *AuthTestSuite) TestTenantClaim() {
	userID, tenantID := uuid.New(), uuid.New()
	token := signToken(suite.T(), newClaims(userID, tenantID.String()))

	rec := suite.serve(http.MethodGet, "/me", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Equal(suite.T(), userID.String()+"|"+tenantID.String(), rec.Body.String())
}

func (suite *AuthTestSuite) TestCookieAndResolverFallback() {
	userID, tenantID := uuid.New(), uuid.New()
	suite.resolver.On("TenantIDForUser", mock.Anything, userID).Return(tenantID, nil)
	token := signToken(suite.T(), newClaims(userID, ""))

	rec := suite.serve(http.MethodGet, "/me", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "sb-access-token", Value: token})
	})
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Equal(suite.T(), userID.String()+"|"+tenantID.String(), rec.Body.String())
}

func (suite *AuthTestSuite) TestNoMembership() {
	userID := uuid.New()
	suite.resolver.On("TenantIDForUser", mock.Anything, userID).Return(uuid.Nil, common.ErrNotFound)
	token := signToken(suite.T(), newClaims(userID, ""))

	rec := suite.serve(http.MethodGet, "/me", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
}

func (suite *AuthTestSuite) TestNoMembershipAllowedForTenantCreation() {
	userID := uuid.New()
	suite.resolver.On("TenantIDForUser", mock.Anything, userID).Return(uuid.Nil, common.ErrNotFound)
	token := signToken(suite.T(), newClaims(userID, ""))

	rec := suite.serve(http.MethodPost, "/tenants", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Equal(suite.T(), userID.String()+"|", rec.Body.String())
}

func (suite *AuthTestSuite) TestBadTenantClaim() {
	token := signToken(suite.T(), newClaims(uuid.New(), "not-a-uuid"))
	rec := suite.serve(http.MethodGet, "/me", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func TestNewKeyfunc_RequiresKeyMaterial(t *testing.T) {
	_, _, err := NewKeyfunc(config.AuthConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewKeyfunc_RejectsOtherAlgorithms(t *testing.T) {
	keyFunc, _, err := NewKeyfunc(config.AuthConfig{JWTSecret: testSecret}, zap.NewNop())
	require.NoError(t, err)

	_, err = keyFunc(&jwt.Token{Method: jwt.SigningMethodRS256, Header: map[string]interface{}{"alg": "RS256"}})
	assert.ErrorContains(t, err, "unexpected signing method")
}

func TestRequirePermission(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	tests := []struct {
		name    string
		allowed bool
		err     error
		want    int
	}{
		{name: "granted", allowed: true, want: http.StatusNoContent},
		{name: "denied", allowed: false, want: http.StatusForbidden},
		{name: "lookup fails", err: errors.New("db down"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rbac := &MockRBACService{}
			rbac.On("UserHasPermission", mock.Anything, userID, tenantID, services.PermDebtsWrite).Return(tt.allowed, tt.err)

			e := echo.New()
			e.HTTPErrorHandler = common.HTTPErrorHandler(zap.NewNop())
			e.POST("/debts", ok, NewRBACMiddleware(rbac).RequirePermission(services.PermDebtsWrite))

			req := withIdentity(httptest.NewRequest(http.MethodPost, "/debts", nil), userID, tenantID)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			rbac.AssertExpectations(t)
		})
	}
}

func TestRequirePermission_NoIdentity(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = common.HTTPErrorHandler(zap.NewNop())
	e.GET("/debts", func(c echo.Context) error { return nil }, NewRBACMiddleware(&MockRBACService{}).RequirePermission(services.PermDebtsRead))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuditRequest_MutatingOnly(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	audit := &MockAuditLogsService{}
	audit.On("LogActivity", mock.Anything, tenantID, auditTable, "42", "DELETE /debts/:id", &userID,
		mock.MatchedBy(func(v models.JSONB) bool {
			return v["status"] == http.StatusNoContent && v["path"] == "/debts/42" && v["request_id"] == "req-1"
		})).Return(nil).Once()

	e := echo.New()
	mw := NewAuditMiddleware(audit).AuditRequest(AuditStandard)
	handler := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.DELETE("/debts/:id", handler, mw)
	e.GET("/debts/:id", handler, mw)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req := withIdentity(httptest.NewRequest(method, "/debts/42", nil), userID, tenantID)
		req.Header.Set(echo.HeaderXRequestID, "req-1")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	audit.AssertExpectations(t)
}

func TestAuditRequest_Sensitive(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	audit := &MockAuditLogsService{}
	audit.On("LogActivity", mock.Anything, tenantID, auditTableSensitive, "/roles", "POST /roles", &userID,
		mock.MatchedBy(func(v models.JSONB) bool {
			headers := v["headers"].(map[string]interface{})
			return headers["Authorization"] == "[REDACTED]" && v["status"] == http.StatusBadRequest && v["error"] != nil
		})).Return(errors.New("db down"))

	e := echo.New()
	e.POST("/roles", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad role")
	}, NewAuditMiddleware(audit).AuditRequest(AuditHigh))

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/roles", nil), userID, tenantID)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	audit.AssertExpectations(t)
}

func TestInvalidateOnWrite(t *testing.T) {
	tenantID := uuid.New()
	cache := &MockCacheService{}
	cache.On("InvalidateTenantCache", mock.Anything, tenantID).Return(nil).Once()

	e := echo.New()
	mw := InvalidateOnWrite(cache)
	e.POST("/ok", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, mw)
	e.POST("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest) }, mw)
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, mw)

	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/ok"},
		{http.MethodPost, "/fail"},
		{http.MethodGet, "/ok"},
	} {
		req := withIdentity(httptest.NewRequest(r.method, r.path, nil), uuid.New(), tenantID)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}
	cache.AssertExpectations(t)
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID(), RequestLogger(zap.NewNop()))
	e.GET("/", func(c echo.Context) error {
		assert.NotNil(t, common.LoggerFromContext(c.Request().Context()))
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, strings.Repeat("x", 100))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	_, err := uuid.Parse(rec.Header().Get(echo.HeaderXRequestID))
	assert.NoError(t, err)
}

func TestHTTPMetrics(t *testing.T) {
	m := NewHTTPMetrics()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/v1/tenders/:id", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound) })
	e.GET("/metrics", m.Handler())

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/tenders/1", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/tenders/2", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/v1/tenders/:id", "404")))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bizdesk_http_requests_total")
}

func TestVersionMiddleware(t *testing.T) {
	vm := NewVersionMiddleware()
	sunset := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	vm.AddVersion("v0", VersionSunset, "", &sunset)

	e := echo.New()
	e.Pre(vm.APIVersionResolver())
	v1 := vm.VersionRoute(e, "v1")
	v1.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	v1.GET("/old", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, vm.Deprecate("use /ping", sunset))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/old", nil))
	assert.Equal(t, "true", rec.Header().Get("X-API-Deprecated"))
	assert.Contains(t, rec.Header().Get("Warning"), "2027-01-01")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v7/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "v1")

	assert.Equal(t, []string{"v1"}, vm.SupportedVersions())
	assert.Equal(t, "", versionFromPath("/health"))
	assert.Equal(t, "v12", versionFromPath("/v12/x"))
}
