// ABOUTME: This file implements the bounded-timeout HTTP fetcher for feed XML
// ABOUTME: Failures are typed so the orchestrator can report them per feed without retrying
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"linkpress/config"
	"linkpress/domain"
	"linkpress/ratelimit"
)

const acceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1"

// Fetcher retrieves raw feed bytes from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client is the default HTTP-backed Fetcher.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.HostLimiter
	logger     *slog.Logger
	userAgent  string
	timeout    time.Duration
	maxBytes   int64
}

// NewClient builds a fetcher from config. The limiter may be nil.
func NewClient(cfg config.FetchConfig, limiter *ratelimit.HostLimiter, logger *slog.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: cfg.IdleConnTimeout,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		limiter:    limiter,
		logger:     logger,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		maxBytes:   int64(cfg.MaxResponseKB) * 1024,
	}
}

// Fetch issues a GET with the configured deadline. Timeouts surface as
// domain.ErrFeedRequestTimedOut, non-2xx as *domain.FeedHTTPError, and
// non-text bodies as domain.ErrInvalidFeedResponse.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.WaitForHost(ctx, url); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			c.logger.WarnContext(ctx, "feed fetch timed out", "url", url, "timeout", c.timeout)
			return nil, domain.ErrFeedRequestTimedOut
		}
		return nil, fmt.Errorf("feed fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "feed fetch returned non-2xx", "url", url, "status", resp.StatusCode)
		return nil, &domain.FeedHTTPError{Status: resp.StatusCode}
	}

	if !isTextContentType(resp.Header.Get("Content-Type")) {
		return nil, domain.ErrInvalidFeedResponse
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrFeedRequestTimedOut
		}
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	c.logger.DebugContext(ctx, "feed fetched",
		"url", url,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds())

	return body, nil
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}
	return false
}

// isTextContentType accepts the usual feed media types plus anything textual.
// An empty Content-Type passes; plenty of small publishers never set one.
func isTextContentType(ctype string) bool {
	if ctype == "" {
		return true
	}

	ctype = strings.ToLower(ctype)

	for _, marker := range []string{"xml", "rss", "atom", "text/", "json"} {
		if strings.Contains(ctype, marker) {
			return true
		}
	}

	return false
}
