// ABOUTME: This file enforces the X-Owner-Key header that scopes every
// ABOUTME: feed and post operation to a single caller
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	// OwnerKeyHeader carries the caller's scoping key.
	OwnerKeyHeader = "X-Owner-Key"

	// OwnerKeyContextKey is the echo context key the handlers read.
	OwnerKeyContextKey = "owner_key"
)

// OwnerKeyMiddleware rejects requests without an owner key. It performs no
// authentication; the key only partitions data between callers.
func OwnerKeyMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ownerKey := strings.TrimSpace(c.Request().Header.Get(OwnerKeyHeader))
			if ownerKey == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing "+OwnerKeyHeader+" header")
			}
			c.Set(OwnerKeyContextKey, ownerKey)
			return next(c)
		}
	}
}

// OwnerKey extracts the owner key stored by OwnerKeyMiddleware.
func OwnerKey(c echo.Context) string {
	if v, ok := c.Get(OwnerKeyContextKey).(string); ok {
		return v
	}
	return ""
}
