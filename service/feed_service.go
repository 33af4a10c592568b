package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkpress/domain"
	"linkpress/fetcher"
	"linkpress/normalizer"
	"linkpress/repository"
)

type feedService struct {
	feedRepo repository.FeedRepository
	fetcher  fetcher.Fetcher
	logger   *slog.Logger
	now      func() time.Time
}

func NewFeedService(feedRepo repository.FeedRepository, feedFetcher fetcher.Fetcher, logger *slog.Logger) FeedService {
	return &feedService{
		feedRepo: feedRepo,
		fetcher:  feedFetcher,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterFeed validates the URL by fetching and parsing it once before the
// feed is stored. The probe's title seeds the stored feed title.
func (s *feedService) RegisterFeed(ctx context.Context, ownerKey, rawURL string) (*domain.Feed, error) {
	feedURL := strings.TrimSpace(rawURL)
	if err := validateFeedURL(feedURL); err != nil {
		return nil, err
	}

	body, err := s.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	parsed, err := normalizer.ParseFeed(body)
	if err != nil {
		return nil, err
	}

	feed := &domain.Feed{
		ID:        uuid.NewString(),
		OwnerKey:  ownerKey,
		URL:       feedURL,
		Title:     normalizer.CleanTitle(parsed.Title),
		CreatedAt: s.now(),
	}
	if err := s.feedRepo.Create(ctx, feed); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "feed registered",
		"feed_id", feed.ID, "feed_url", feed.URL, "feed_title", feed.Title)
	return feed, nil
}

func (s *feedService) ListFeeds(ctx context.Context, ownerKey string) ([]*domain.Feed, error) {
	feeds, err := s.feedRepo.FindAllByOwner(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	return feeds, nil
}

func validateFeedURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty feed url", domain.ErrInvalidFeedURL)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidFeedURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidFeedURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", domain.ErrInvalidFeedURL)
	}
	return nil
}
