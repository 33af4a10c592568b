// ABOUTME: This file implements the feed refresh orchestrator that drives the
// ABOUTME: fetch, parse, normalize, assemble and persist pipeline per owner.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/singleflight"

	"linkpress/assembler"
	"linkpress/config"
	"linkpress/domain"
	"linkpress/fetcher"
	"linkpress/metrics"
	"linkpress/normalizer"
	"linkpress/repository"
	"linkpress/selector"
)

type refreshService struct {
	feedRepo    repository.FeedRepository
	fetcher     fetcher.Fetcher
	assembler   *assembler.Assembler
	coordinator *Coordinator
	logger      *slog.Logger
	cfg         config.IngestConfig
	group       singleflight.Group
	now         func() time.Time
}

func NewRefreshService(
	feedRepo repository.FeedRepository,
	feedFetcher fetcher.Fetcher,
	articleAssembler *assembler.Assembler,
	coordinator *Coordinator,
	cfg config.IngestConfig,
	logger *slog.Logger,
) RefreshService {
	return &refreshService{
		feedRepo:    feedRepo,
		fetcher:     feedFetcher,
		assembler:   articleAssembler,
		coordinator: coordinator,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// RefreshOwnerFeeds refreshes every feed of one owner. Concurrent calls for
// the same owner coalesce into a single run that all callers share.
func (s *refreshService) RefreshOwnerFeeds(ctx context.Context, ownerKey string) ([]*domain.FeedRefreshSummary, error) {
	result, err, _ := s.group.Do(ownerKey, func() (interface{}, error) {
		return s.refreshAll(ctx, ownerKey)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*domain.FeedRefreshSummary), nil
}

func (s *refreshService) refreshAll(ctx context.Context, ownerKey string) ([]*domain.FeedRefreshSummary, error) {
	feeds, err := s.feedRepo.FindAllByOwner(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds for refresh: %w", err)
	}

	summaries := make([]*domain.FeedRefreshSummary, 0, len(feeds))
	for _, feed := range feeds {
		summaries = append(summaries, s.refreshFeed(ctx, feed))
	}
	return summaries, nil
}

// refreshFeed never returns an error: per-feed failures are reported in the
// summary so one broken feed cannot block its siblings.
func (s *refreshService) refreshFeed(ctx context.Context, feed *domain.Feed) *domain.FeedRefreshSummary {
	summary := &domain.FeedRefreshSummary{
		FeedID:    feed.ID,
		FeedURL:   feed.URL,
		FeedTitle: feed.Title,
	}

	now := s.now()
	cooldown := time.Duration(s.cfg.CooldownSeconds) * time.Second
	if feed.LastFetchedAt != nil {
		elapsed := now.Sub(*feed.LastFetchedAt)
		if elapsed < cooldown {
			summary.SkippedByCooldown = true
			summary.CooldownSecondsRemaining = int64((cooldown - elapsed + time.Second - 1) / time.Second)
			return summary
		}
	}

	// The fetch attempt consumes the cooldown whether or not it succeeds,
	// so a persistently broken feed cannot be hammered.
	defer func() {
		if err := s.feedRepo.UpdateLastFetchedAt(ctx, feed.ID, now); err != nil {
			s.logger.ErrorContext(ctx, "failed to advance last_fetched_at",
				"feed_id", feed.ID, "error", err)
		}
	}()

	body, err := s.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		summary.Error = err.Error()
		s.logger.WarnContext(ctx, "feed fetch failed",
			"feed_id", feed.ID, "feed_url", feed.URL, "error", err)
		return summary
	}

	parsed, err := normalizer.ParseFeed(body)
	if err != nil {
		summary.Error = err.Error()
		s.logger.WarnContext(ctx, "feed parse failed",
			"feed_id", feed.ID, "feed_url", feed.URL, "error", err)
		return summary
	}

	if title := normalizer.CleanTitle(parsed.Title); title != "" && title != feed.Title {
		if err := s.feedRepo.UpdateTitle(ctx, feed.ID, title); err != nil {
			s.logger.ErrorContext(ctx, "failed to update feed title",
				"feed_id", feed.ID, "error", err)
		} else {
			summary.FeedTitle = title
		}
	}

	summary.ItemsRead = len(parsed.Items)
	candidates := s.buildCandidates(ctx, parsed, feed, now, summary)
	summary.ItemsWithinWindow = len(candidates)

	result, err := s.coordinator.Persist(ctx, feed, candidates)
	if err != nil {
		summary.Error = err.Error()
		s.logger.ErrorContext(ctx, "failed to persist feed items",
			"feed_id", feed.ID, "error", err)
		return summary
	}
	summary.ArticlesCreated = result.Created
	summary.Duplicates = result.Duplicates

	s.logger.InfoContext(ctx, "feed refreshed",
		"feed_id", feed.ID,
		"items_read", summary.ItemsRead,
		"items_within_window", summary.ItemsWithinWindow,
		"articles_created", summary.ArticlesCreated,
		"duplicates", summary.Duplicates,
		"invalid_items", summary.InvalidItems)
	return summary
}

// buildCandidates normalizes and assembles every parseable item inside the
// ingestion window, oldest first so creation order follows publish order.
func (s *refreshService) buildCandidates(ctx context.Context, parsed *gofeed.Feed, feed *domain.Feed, now time.Time, summary *domain.FeedRefreshSummary) []*ArticleCandidate {
	// Whole 86400-second days, independent of the local calendar.
	windowStart := now.Add(-time.Duration(s.cfg.WindowDays) * 24 * time.Hour)

	candidates := make([]*ArticleCandidate, 0, len(parsed.Items))
	for _, raw := range parsed.Items {
		start := time.Now()
		item, err := normalizer.NormalizeItem(parsed, raw, feed.URL)
		if err != nil {
			if errors.Is(err, domain.ErrItemInvalid) || errors.Is(err, domain.ErrNoPublishDate) {
				summary.InvalidItems++
				metrics.RecordItemInvalid()
				continue
			}

			// Any other failure degrades to a bare title+link article
			// instead of dropping the item.
			s.logger.WarnContext(ctx, "item degraded to fallback article",
				"feed_id", feed.ID, "error", err)
			metrics.RecordItemFailed()
			candidates = append(candidates, s.degradedCandidate(raw, now))
			continue
		}

		// Inclusive lower bound; items dated in the future are held back
		// until their publish time arrives.
		if item.PublishedAt.Before(windowStart) || item.PublishedAt.After(now) {
			continue
		}

		selection := selector.Select(item)
		assembly := s.assembler.Assemble(item, selection)
		snippet := s.assembler.Excerpt(selection.BodyHTML, item.Candidates.DescriptionOrSummary)

		if selection.ChosenSource == domain.SourceEmpty {
			metrics.RecordItemFallback()
		}
		metrics.RecordItemProcessed(selection, assembly, time.Since(start))

		candidates = append(candidates, &ArticleCandidate{
			Item:      item,
			Selection: selection,
			Assembly:  assembly,
			Snippet:   snippet,
			Fallback:  selection.ChosenSource == domain.SourceEmpty,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Item.PublishedAt.Before(candidates[j].Item.PublishedAt)
	})
	return candidates
}

// degradedCandidate builds the minimal persistable article for an item that
// failed normalization for a reason other than missing signal or date. The
// item keeps its guid/link identity so a later clean run dedupes against it.
func (s *refreshService) degradedCandidate(raw *gofeed.Item, now time.Time) *ArticleCandidate {
	item := &domain.NormalizedItem{
		Title:        normalizer.CleanTitle(raw.Title),
		CanonicalURL: strings.TrimSpace(raw.Link),
		GUID:         strings.TrimSpace(raw.GUID),
		PublishedAt:  now,
	}

	return &ArticleCandidate{
		Item:      item,
		Selection: domain.SelectionResult{ChosenSource: domain.SourceEmpty},
		Assembly:  s.assembler.Fallback(item.Title, item.CanonicalURL),
		Snippet:   item.Title,
		Fallback:  true,
	}
}
