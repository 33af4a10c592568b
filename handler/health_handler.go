package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"linkpress/repository"
)

type healthHandler struct {
	db     repository.DB
	logger *slog.Logger
}

func NewHealthHandler(db repository.DB, logger *slog.Logger) HealthHandler {
	return &healthHandler{
		db:     db,
		logger: logger,
	}
}

// Check reports liveness plus database reachability.
func (h *healthHandler) Check(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "database ping failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "unreachable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "ok",
	})
}
