// ABOUTME: This file spaces outbound feed fetches per publisher host so that
// ABOUTME: polling many feeds from one origin never hammers that origin
package ratelimit

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedHosts bounds the bucket map; beyond it the stalest host is
// dropped. A dropped bucket has long since refilled, so no pacing is lost.
const maxTrackedHosts = 512

// HostLimiter paces outbound requests so each publisher host sees at most
// one request per interval.
type HostLimiter struct {
	buckets  map[string]*hostBucket
	mu       sync.Mutex
	interval time.Duration
}

type hostBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewHostLimiter creates a limiter granting one request per interval per host.
func NewHostLimiter(interval time.Duration) *HostLimiter {
	return &HostLimiter{
		buckets:  make(map[string]*hostBucket),
		interval: interval,
	}
}

// WaitForHost blocks until the publisher's bucket grants a slot or ctx is
// done. Hosts are compared case-insensitively with default ports stripped,
// so the same origin spelled differently still shares one budget.
func (h *HostLimiter) WaitForHost(ctx context.Context, rawURL string) error {
	host, err := canonicalHost(rawURL)
	if err != nil {
		return err
	}

	return h.bucketFor(host).Wait(ctx)
}

func canonicalHost(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", &url.Error{Op: "parse", URL: rawURL, Err: errors.New("missing host in URL")}
	}

	host := strings.ToLower(parsed.Host)
	switch parsed.Scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}

	return host, nil
}

func (h *HostLimiter) bucketFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if bucket, ok := h.buckets[host]; ok {
		bucket.lastSeen = time.Now()
		return bucket.limiter
	}

	if len(h.buckets) >= maxTrackedHosts {
		h.evictStalest()
	}

	bucket := &hostBucket{
		limiter:  rate.NewLimiter(rate.Every(h.interval), 1),
		lastSeen: time.Now(),
	}
	h.buckets[host] = bucket

	return bucket.limiter
}

// evictStalest must run under h.mu.
func (h *HostLimiter) evictStalest() {
	var stalest string
	var oldest time.Time

	for host, bucket := range h.buckets {
		if stalest == "" || bucket.lastSeen.Before(oldest) {
			stalest = host
			oldest = bucket.lastSeen
		}
	}

	delete(h.buckets, stalest)
}
