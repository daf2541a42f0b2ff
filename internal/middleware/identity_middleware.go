package middleware

import (
	"context"
	"net/http"
	"strconv"

	"freshMarket/business/ranker"
	"freshMarket/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// IdentityMiddleware resolves the caller from the X-User-ID header set by the
// API gateway. Authentication itself happens upstream.
func IdentityMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("X-User-ID")
			if header == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "missing X-User-ID header",
				})
			}

			userID, err := strconv.ParseUint(header, 10, 64)
			if err != nil || userID == 0 {
				logger.Warn("Invalid X-User-ID header", "value", header)
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "invalid X-User-ID header",
				})
			}

			c.Set("user_id", userID)

			return next(c)
		}
	}
}

// TraceMiddleware tags every request with a trace ID, honoring one supplied
// by the caller, and threads it through the request context so service logs
// can correlate.
func TraceMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get("X-Trace-ID")
			if traceID == "" {
				traceID = uuid.NewString()
			}

			ctx := context.WithValue(c.Request().Context(), ranker.TraceIDKey, traceID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set("X-Trace-ID", traceID)

			return next(c)
		}
	}
}
