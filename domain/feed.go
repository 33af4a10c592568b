package domain

import (
	"time"
)

// Feed represents a registered RSS/Atom feed owned by a single caller.
type Feed struct {
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	LastFetchedAt *time.Time `db:"last_fetched_at" json:"last_fetched_at,omitempty"`
	ID            string     `db:"id" json:"id"`
	OwnerKey      string     `db:"owner_key" json:"-"`
	URL           string     `db:"url" json:"url"`
	Title         string     `db:"title" json:"title,omitempty"`
}

// FeedRefreshSummary is the per-feed outcome of one refresh invocation.
type FeedRefreshSummary struct {
	FeedID                   string `json:"feed_id"`
	FeedURL                  string `json:"feed_url"`
	FeedTitle                string `json:"feed_title,omitempty"`
	Error                    string `json:"error,omitempty"`
	CooldownSecondsRemaining int64  `json:"cooldown_seconds_remaining,omitempty"`
	ItemsRead                int    `json:"items_read"`
	ItemsWithinWindow        int    `json:"items_within_window"`
	ArticlesCreated          int    `json:"articles_created"`
	Duplicates               int    `json:"duplicates"`
	InvalidItems             int    `json:"invalid_items"`
	SkippedByCooldown        bool   `json:"skipped_by_cooldown"`
}
