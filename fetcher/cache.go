// ABOUTME: This file implements the TTL cache wrapping the feed fetcher
// ABOUTME: Concurrent fetches of the same URL coalesce; failed fetches are never cached
package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"linkpress/config"
)

type cacheEntry struct {
	storedAt time.Time
	body     []byte
}

// Cache is a bounded TTL cache in front of a Fetcher. Entries holding a
// failed fetch are evicted immediately so failures are not sticky.
type Cache struct {
	inner      Fetcher
	logger     *slog.Logger
	entries    map[string]*cacheEntry
	group      singleflight.Group
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewCache wraps inner with TTL caching per feed URL.
func NewCache(inner Fetcher, cfg config.CacheConfig, logger *slog.Logger) *Cache {
	return &Cache{
		inner:      inner,
		logger:     logger,
		entries:    make(map[string]*cacheEntry),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
	}
}

// Fetch returns a cached body when fresh, otherwise delegates to the inner
// fetcher. Concurrent callers for the same URL share one in-flight fetch.
func (c *Cache) Fetch(ctx context.Context, url string) ([]byte, error) {
	c.mu.Lock()
	if entry, ok := c.entries[url]; ok {
		if c.now().Sub(entry.storedAt) < c.ttl {
			body := entry.body
			c.mu.Unlock()
			c.logger.DebugContext(ctx, "feed cache hit", "url", url)
			return body, nil
		}
		delete(c.entries, url)
	}
	c.mu.Unlock()

	result, err, _ := c.group.Do(url, func() (any, error) {
		body, err := c.inner.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}

		c.store(url, body)

		return body, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

func (c *Cache) store(url string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = &cacheEntry{storedAt: c.now(), body: body}

	if len(c.entries) <= c.maxEntries {
		return
	}

	// Over capacity: drop expired entries first, then the oldest.
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
	}

	for len(c.entries) > c.maxEntries {
		var oldestKey string
		var oldestAt time.Time

		for key, entry := range c.entries {
			if oldestKey == "" || entry.storedAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.storedAt
			}
		}

		delete(c.entries, oldestKey)
	}
}
