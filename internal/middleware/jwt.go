package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/config"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const tokenContextKey = "user"

// Claims are the session token claims issued by the managed auth backend.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id,omitempty"`
}

// TenantResolver maps a signed-in user to the tenant they work in.
type TenantResolver interface {
	TenantIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// NewKeyfunc returns the token verification key source. With a JWKS URL the
// keys are fetched and refreshed in the background; the returned cleanup
// stops the refresh goroutine.
func NewKeyfunc(cfg config.AuthConfig, logger *zap.Logger) (jwt.Keyfunc, func(), error) {
	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				logger.Warn("jwks refresh failed", zap.String("url", cfg.JWKSURL), zap.Error(err))
			},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("load jwks: %w", err)
		}
		return jwks.Keyfunc, jwks.EndBackground, nil
	}

	if cfg.JWTSecret == "" {
		return nil, nil, errors.New("no token verification key configured")
	}
	secret := []byte(cfg.JWTSecret)
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}, func() {}, nil
}

// JWTMiddleware verifies the session token from the Authorization header or
// the auth backend's cookie.
func JWTMiddleware(keyFunc jwt.Keyfunc, cookieName string) echo.MiddlewareFunc {
	lookup := "header:Authorization:Bearer "
	if cookieName != "" {
		lookup += ",cookie:" + cookieName
	}
	return echojwt.WithConfig(echojwt.Config{
		KeyFunc:     keyFunc,
		TokenLookup: lookup,
		ContextKey:  tokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var missing *echojwt.TokenExtractionError
			if errors.As(err, &missing) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	})
}

// IdentityContext copies the user and tenant of a verified token into the
// request context. The tenant comes from the tenant_id claim, or from the
// user's employee record. With requireTenant unset a user without a tenant
// passes through; that is how a first tenant gets created.
func IdentityContext(resolver TenantResolver, requireTenant bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}
			claims, ok := token.Claims.(*Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid claims")
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user_id format")
			}

			ctx := c.Request().Context()
			tenantID, err := tenantFor(ctx, resolver, claims, userID)
			switch {
			case err == nil:
			case errors.Is(err, common.ErrNotFound) && !requireTenant:
				tenantID = uuid.Nil
			case errors.Is(err, common.ErrNotFound):
				return echo.NewHTTPError(http.StatusForbidden, "User is not a member of any tenant")
			case errors.Is(err, common.ErrValidation):
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid tenant_id claim")
			default:
				common.LoggerFromContext(ctx).Error("failed to resolve tenant", zap.String("user_id", userID.String()), zap.Error(err))
				return echo.NewHTTPError(http.StatusInternalServerError, "Error resolving tenant")
			}

			logger := common.LoggerFromContext(ctx).With(zap.String("user_id", userID.String()))
			ctx = context.WithValue(ctx, common.UserIDKey, userID)
			if tenantID != uuid.Nil {
				ctx = context.WithValue(ctx, common.TenantIDKey, tenantID)
				logger = logger.With(zap.String("tenant_id", tenantID.String()))
			}
			ctx = context.WithValue(ctx, common.LoggerKey, logger)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func tenantFor(ctx context.Context, resolver TenantResolver, claims *Claims, userID uuid.UUID) (uuid.UUID, error) {
	if claims.TenantID != "" {
		id, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: tenant_id claim", common.ErrValidation)
		}
		return id, nil
	}
	return resolver.TenantIDForUser(ctx, userID)
}
