package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"linkpress/domain"
)

// FeedRepository implementation.
type feedRepository struct {
	db     DB
	logger *slog.Logger
}

// NewFeedRepository creates a new feed repository.
func NewFeedRepository(db DB, logger *slog.Logger) FeedRepository {
	return &feedRepository{
		db:     db,
		logger: logger,
	}
}

// Create registers a new feed for its owner. A duplicate (owner, url) pair
// surfaces as domain.ErrFeedAlreadyRegistered.
func (r *feedRepository) Create(ctx context.Context, feed *domain.Feed) error {
	query := `
		INSERT INTO feeds (id, owner_key, url, title, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query, feed.ID, feed.OwnerKey, feed.URL, feed.Title, feed.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrFeedAlreadyRegistered
		}
		r.logger.ErrorContext(ctx, "failed to create feed", "error", err, "url", feed.URL)
		return fmt.Errorf("failed to create feed: %w", err)
	}

	return nil
}

// FindAllByOwner returns the owner's feeds in registration order.
func (r *feedRepository) FindAllByOwner(ctx context.Context, ownerKey string) ([]*domain.Feed, error) {
	query := `
		SELECT id, owner_key, url, title, last_fetched_at, created_at
		FROM feeds
		WHERE owner_key = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, ownerKey)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find feeds by owner", "error", err)
		return nil, fmt.Errorf("failed to find feeds by owner: %w", err)
	}
	defer rows.Close()

	var feeds []*domain.Feed

	for rows.Next() {
		feed := &domain.Feed{}
		if err := rows.Scan(&feed.ID, &feed.OwnerKey, &feed.URL, &feed.Title, &feed.LastFetchedAt, &feed.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feed: %w", err)
		}
		feeds = append(feeds, feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feeds: %w", err)
	}

	return feeds, nil
}

// FindByID returns one feed or domain.ErrFeedNotFound.
func (r *feedRepository) FindByID(ctx context.Context, feedID string) (*domain.Feed, error) {
	query := `
		SELECT id, owner_key, url, title, last_fetched_at, created_at
		FROM feeds
		WHERE id = $1
	`

	feed := &domain.Feed{}

	err := r.db.QueryRow(ctx, query, feedID).
		Scan(&feed.ID, &feed.OwnerKey, &feed.URL, &feed.Title, &feed.LastFetchedAt, &feed.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFeedNotFound
		}
		return nil, fmt.Errorf("failed to find feed: %w", err)
	}

	return feed, nil
}

// UpdateLastFetchedAt advances the feed's fetch timestamp. The timestamp is
// monotonically non-decreasing: an older value never overwrites a newer one.
func (r *feedRepository) UpdateLastFetchedAt(ctx context.Context, feedID string, fetchedAt time.Time) error {
	query := `
		UPDATE feeds
		SET last_fetched_at = $2
		WHERE id = $1 AND (last_fetched_at IS NULL OR last_fetched_at <= $2)
	`

	_, err := r.db.Exec(ctx, query, feedID, fetchedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to update last_fetched_at", "error", err, "feed_id", feedID)
		return fmt.Errorf("failed to update last_fetched_at: %w", err)
	}

	return nil
}

// UpdateTitle stores the title discovered during a fetch.
func (r *feedRepository) UpdateTitle(ctx context.Context, feedID, title string) error {
	query := `UPDATE feeds SET title = $2 WHERE id = $1`

	_, err := r.db.Exec(ctx, query, feedID, title)
	if err != nil {
		return fmt.Errorf("failed to update feed title: %w", err)
	}

	return nil
}
