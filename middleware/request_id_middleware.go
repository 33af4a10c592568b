// ABOUTME: This file assigns every request a trace id, reusing a well-formed
// ABOUTME: caller-supplied one and minting a fresh UUID otherwise
package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"linkpress/utils/logger"
)

const requestIDHeader = "X-Request-ID"

// maxRequestIDLength caps ids accepted from callers so an abusive header
// cannot bloat every log line of the request.
const maxRequestIDLength = 64

// RequestIDMiddleware stores the request id in the context for log
// enrichment and echoes it back in the response.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(requestIDHeader)
			if !validRequestID(requestID) {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(req.Context(), logger.RequestIDKey, requestID)
			c.SetRequest(req.WithContext(ctx))
			c.Response().Header().Set(requestIDHeader, requestID)

			return next(c)
		}
	}
}

// validRequestID accepts only ids that are safe to echo back in a header
// and to print in log lines.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}

	return true
}
