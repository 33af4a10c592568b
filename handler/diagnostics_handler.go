package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"linkpress/metrics"
)

type diagnosticsHandler struct {
	diagnostics *metrics.Diagnostics
}

func NewDiagnosticsHandler(diagnostics *metrics.Diagnostics) DiagnosticsHandler {
	return &diagnosticsHandler{diagnostics: diagnostics}
}

// Ingestion returns the newest ingestion diagnostics, optionally filtered to
// one feed. Limit defaults to 25 and is capped at the buffer capacity.
func (h *diagnosticsHandler) Ingestion(c echo.Context) error {
	limit := metrics.DefaultDiagnosticsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	entries := h.diagnostics.List(c.QueryParam("feedId"), limit)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
