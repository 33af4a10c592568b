package handler

import (
	"github.com/labstack/echo/v4"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_handlers.go -package=mocks

// FeedHandler serves feed registration and listing.
type FeedHandler interface {
	Register(c echo.Context) error
	List(c echo.Context) error
}

// PostHandler serves refresh, cleanup and listing of posts.
type PostHandler interface {
	Refresh(c echo.Context) error
	Cleanup(c echo.Context) error
	List(c echo.Context) error
}

// DiagnosticsHandler exposes the in-memory ingestion diagnostics buffer.
type DiagnosticsHandler interface {
	Ingestion(c echo.Context) error
}

// HealthHandler reports service and dependency health.
type HealthHandler interface {
	Check(c echo.Context) error
}
