package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"linkpress/domain"
	"linkpress/middleware"
	"linkpress/service"
)

type registerFeedRequest struct {
	URL string `json:"url"`
}

type feedHandler struct {
	feedService service.FeedService
	logger      *slog.Logger
}

func NewFeedHandler(feedService service.FeedService, logger *slog.Logger) FeedHandler {
	return &feedHandler{
		feedService: feedService,
		logger:      logger,
	}
}

// Register validates and stores a new feed for the calling owner.
func (h *feedHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req registerFeedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	feed, err := h.feedService.RegisterFeed(ctx, middleware.OwnerKey(c), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidFeedURL):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrFeedAlreadyRegistered):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrFeedParse), errors.Is(err, domain.ErrInvalidFeedResponse),
			errors.Is(err, domain.ErrFeedRequestTimedOut):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}

		var httpErr *domain.FeedHTTPError
		if errors.As(err, &httpErr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}

		h.logger.ErrorContext(ctx, "feed registration failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to register feed")
	}

	return c.JSON(http.StatusCreated, feed)
}

// List returns every feed registered by the calling owner.
func (h *feedHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	feeds, err := h.feedService.ListFeeds(ctx, middleware.OwnerKey(c))
	if err != nil {
		h.logger.ErrorContext(ctx, "feed listing failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list feeds")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
	})
}
