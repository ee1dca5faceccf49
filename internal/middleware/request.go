package middleware

import (
	"context"
	"net/http"

	"bizdesk/internal/caching"
	"bizdesk/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const requestIDMaxLen = 64

// RequestID reuses the caller's X-Request-ID when it is sane and generates
// a UUID otherwise.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" || len(rid) > requestIDMaxLen {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)
			return next(c)
		}
	}
}

// RequestLogger puts a request-scoped zap logger into the context and logs
// each request once it completes. Level follows the status: 5xx error,
// 4xx warn, the rest info.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		BeforeNextFunc: func(c echo.Context) {
			reqLogger := logger.With(
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
			)
			ctx := context.WithValue(c.Request().Context(), common.LoggerKey, reqLogger)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("route", v.RoutePath),
				zap.Duration("latency", v.Latency),
				zap.String("ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}

			reqLogger := common.LoggerFromContext(c.Request().Context())
			switch {
			case v.Status >= http.StatusInternalServerError:
				reqLogger.Error("request failed", fields...)
			case v.Status >= http.StatusBadRequest:
				reqLogger.Warn("client error", fields...)
			default:
				reqLogger.Info("request completed", fields...)
			}
			return nil
		},
	})
}

// InvalidateOnWrite drops the tenant's cached dashboards after a successful
// mutating request.
func InvalidateOnWrite(cache caching.CacheService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if cache == nil || !isMutating(c.Request().Method) {
				return err
			}
			if status := responseStatus(c, err); status >= http.StatusBadRequest {
				return err
			}

			ctx := c.Request().Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return err
			}
			if cacheErr := cache.InvalidateTenantCache(ctx, tenantID); cacheErr != nil {
				common.LoggerFromContext(ctx).Warn("failed to invalidate tenant cache", zap.Error(cacheErr))
			}
			return err
		}
	}
}
