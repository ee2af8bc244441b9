package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/phishguard/phishguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func safeResult(msg string) *core.AnalysisResult {
	return &core.AnalysisResult{
		Classification: core.ClassificationSafe,
		Score:          1.5,
		Message:        msg,
	}
}

func TestMemoryCache_LookupMiss(t *testing.T) {
	c := NewMemoryCacheWithClock(zap.NewNop(), time.Hour, 100, time.Now)

	result, ok := c.Lookup("http://example.com")
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewMemoryCacheWithClock(zap.NewNop(), time.Hour, 100, clock)

	c.Insert("http://example.com", safeResult("fresh"))

	// Just inside the TTL.
	now = now.Add(time.Hour - time.Millisecond)
	result, ok := c.Lookup("http://example.com")
	require.True(t, ok)
	assert.Equal(t, "fresh", result.Message)

	// Exactly at the TTL boundary the entry is no longer eligible.
	now = now.Add(time.Millisecond)
	_, ok = c.Lookup("http://example.com")
	assert.False(t, ok)

	// Expired entries are skipped on read, not removed.
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_ExactStringMatch(t *testing.T) {
	c := NewMemoryCacheWithClock(zap.NewNop(), time.Hour, 100, time.Now)

	c.Insert("http://example.com/", safeResult("with slash"))

	_, ok := c.Lookup("http://example.com")
	assert.False(t, ok, "no canonicalization: trailing slash must not match")
}

func TestMemoryCache_CapacityBound(t *testing.T) {
	c := NewMemoryCacheWithClock(zap.NewNop(), time.Hour, 100, time.Now)

	for i := 0; i < 150; i++ {
		c.Insert(fmt.Sprintf("http://site-%03d.com", i), safeResult("x"))
	}

	assert.Equal(t, 100, c.Len(), "capacity must hold exactly 100 entries")
}

func TestMemoryCache_FIFOEviction(t *testing.T) {
	c := NewMemoryCacheWithClock(zap.NewNop(), time.Hour, 3, time.Now)

	c.Insert("a", safeResult("a"))
	c.Insert("b", safeResult("b"))
	c.Insert("c", safeResult("c"))
	c.Insert("d", safeResult("d"))

	_, ok := c.Lookup("a")
	assert.False(t, ok, "oldest-inserted key must be evicted first")

	for _, key := range []string{"b", "c", "d"} {
		_, ok := c.Lookup(key)
		assert.True(t, ok, "key %q should survive", key)
	}

	c.Insert("e", safeResult("e"))
	_, ok = c.Lookup("b")
	assert.False(t, ok, "eviction must proceed in insertion order")
}

func TestMemoryCache_OverwriteRefreshesTimestamp(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewMemoryCacheWithClock(zap.NewNop(), time.Hour, 3, clock)

	c.Insert("a", safeResult("old"))

	now = now.Add(50 * time.Minute)
	c.Insert("a", safeResult("new"))
	assert.Equal(t, 1, c.Len())

	// 20 more minutes would have expired the original insert.
	now = now.Add(20 * time.Minute)
	result, ok := c.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "new", result.Message)
}

func TestMemoryCache_OverwriteKeepsQueuePosition(t *testing.T) {
	c := NewMemoryCacheWithClock(zap.NewNop(), time.Hour, 2, time.Now)

	c.Insert("a", safeResult("a"))
	c.Insert("b", safeResult("b"))
	c.Insert("a", safeResult("a2"))
	c.Insert("c", safeResult("c"))

	_, ok := c.Lookup("a")
	assert.False(t, ok, "overwrite must not move a key to the back of the queue")
	_, ok = c.Lookup("b")
	assert.True(t, ok)
}

func TestMemoryCache_Cleanup(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewMemoryCacheWithClock(zap.NewNop(), time.Hour, 100, clock)

	c.Insert("old", safeResult("old"))
	now = now.Add(2 * time.Hour)
	c.Insert("new", safeResult("new"))

	require.NoError(t, c.Cleanup(context.Background()))

	assert.Equal(t, 1, c.Len())
	_, ok := c.Lookup("new")
	assert.True(t, ok)
}
