// ABOUTME: This file provides the slog-based JSON logger shared by every component
// ABOUTME: Output format keeps lowercase levels and msg/time keys for log aggregation
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	// RequestIDKey carries the request id assigned by the middleware.
	RequestIDKey contextKey = "request_id"

	// OperationKey names the pipeline operation currently running.
	OperationKey contextKey = "operation"
)

// New builds the service-wide slog.Logger. Level accepts debug/info/warn/error
// and defaults to info.
func New(serviceName, level string) *slog.Logger {
	options := &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lv, ok := a.Value.Any().(slog.Level); ok {
					return slog.Attr{Key: "level", Value: slog.StringValue(strings.ToLower(lv.String()))}
				}
			}
			return a
		},
	}

	handler := slog.NewJSONHandler(os.Stdout, options)

	return slog.New(handler).With("service", serviceName)
}

// WithContext returns the logger enriched with request-scoped fields.
func WithContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	var fields []any

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		fields = append(fields, "request_id", requestID)
	}

	if operation := ctx.Value(OperationKey); operation != nil {
		fields = append(fields, "operation", operation)
	}

	if len(fields) > 0 {
		return base.With(fields...)
	}

	return base
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
