// ABOUTME: This file wires every HTTP route and its middleware chain onto the
// ABOUTME: echo instance, including the Prometheus scrape endpoint
package handler

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linkpress/middleware"
)

// Handlers bundles everything RegisterRoutes needs.
type Handlers struct {
	Feed        FeedHandler
	Post        PostHandler
	Diagnostics DiagnosticsHandler
	Health      HealthHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers, logger *slog.Logger) {
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(middleware.LoggingMiddleware(logger))

	e.GET("/v1/health", h.Health.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1", middleware.OwnerKeyMiddleware())
	v1.POST("/feeds", h.Feed.Register)
	v1.GET("/feeds", h.Feed.List)
	v1.POST("/posts/refresh", h.Post.Refresh)
	v1.POST("/posts/cleanup", h.Post.Cleanup)
	v1.GET("/posts", h.Post.List)
	v1.GET("/diagnostics/ingestion", h.Diagnostics.Ingestion)
}
