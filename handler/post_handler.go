package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"linkpress/domain"
	"linkpress/middleware"
	"linkpress/service"
)

type postHandler struct {
	refreshService service.RefreshService
	listService    service.ListService
	cleanupService service.CleanupService
	logger         *slog.Logger
}

func NewPostHandler(
	refreshService service.RefreshService,
	listService service.ListService,
	cleanupService service.CleanupService,
	logger *slog.Logger,
) PostHandler {
	return &postHandler{
		refreshService: refreshService,
		listService:    listService,
		cleanupService: cleanupService,
		logger:         logger,
	}
}

// Refresh ingests new items for every feed of the calling owner and returns
// one summary per feed.
func (h *postHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	summaries, err := h.refreshService.RefreshOwnerFeeds(ctx, middleware.OwnerKey(c))
	if err != nil {
		h.logger.ErrorContext(ctx, "refresh failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to refresh feeds")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"refreshed_at": time.Now().UTC(),
		"feeds":        summaries,
	})
}

// Cleanup removes articles past the retention horizon.
func (h *postHandler) Cleanup(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.cleanupService.Cleanup(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "cleanup failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to run cleanup")
	}

	return c.JSON(http.StatusOK, result)
}

// List returns one page of the owner's articles with generation records.
func (h *postHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = parsed
	}

	page, err := h.listService.ListPosts(ctx, middleware.OwnerKey(c), c.QueryParam("cursor"), limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCursor) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.ErrorContext(ctx, "post listing failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list posts")
	}

	return c.JSON(http.StatusOK, page)
}
