package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiter_FirstRequestIsImmediate(t *testing.T) {
	limiter := NewHostLimiter(time.Minute)

	start := time.Now()
	require.NoError(t, limiter.WaitForHost(context.Background(), "https://example.com/rss"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestHostLimiter_SecondRequestToSameHostWaits(t *testing.T) {
	limiter := NewHostLimiter(50 * time.Millisecond)

	ctx := context.Background()
	require.NoError(t, limiter.WaitForHost(ctx, "https://example.com/rss"))

	start := time.Now()
	require.NoError(t, limiter.WaitForHost(ctx, "https://example.com/other-rss"))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestHostLimiter_DistinctHostsDoNotShareBuckets(t *testing.T) {
	limiter := NewHostLimiter(time.Minute)

	ctx := context.Background()
	require.NoError(t, limiter.WaitForHost(ctx, "https://a.example.com/rss"))

	start := time.Now()
	require.NoError(t, limiter.WaitForHost(ctx, "https://b.example.com/rss"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestHostLimiter_CancelledContextUnblocks(t *testing.T) {
	limiter := NewHostLimiter(time.Hour)

	require.NoError(t, limiter.WaitForHost(context.Background(), "https://example.com/rss"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.WaitForHost(ctx, "https://example.com/rss")
	require.Error(t, err)
}

func TestHostLimiter_CanonicalizesHostSpelling(t *testing.T) {
	limiter := NewHostLimiter(time.Hour)

	require.NoError(t, limiter.WaitForHost(context.Background(), "https://Example.COM/rss"))

	// The differently-spelled same origin must hit the drained bucket.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.WaitForHost(ctx, "https://example.com:443/other-rss")
	require.Error(t, err)
}

func TestHostLimiter_EvictsStalestHostAtCapacity(t *testing.T) {
	limiter := NewHostLimiter(time.Hour)

	ctx := context.Background()
	require.NoError(t, limiter.WaitForHost(ctx, "https://first.example/rss"))

	for i := 0; i < maxTrackedHosts; i++ {
		require.NoError(t, limiter.WaitForHost(ctx, fmt.Sprintf("https://host-%d.example/rss", i)))
	}

	// The first host was the stalest and got evicted; its fresh bucket
	// grants a slot immediately even though the old one was drained.
	start := time.Now()
	require.NoError(t, limiter.WaitForHost(ctx, "https://first.example/rss"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestHostLimiter_RejectsHostlessURL(t *testing.T) {
	limiter := NewHostLimiter(time.Minute)

	err := limiter.WaitForHost(context.Background(), "not-a-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing host")
}
