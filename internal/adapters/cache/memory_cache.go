package cache

import (
	"context"
	"sync"
	"time"

	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

type entry struct {
	result     *core.AnalysisResult
	insertedAt time.Time
}

// MemoryCache is a fixed-capacity, time-bounded URL result cache implementing
// the core.ResultCache interface.
//
// Keys are exact URL strings, no canonicalization. An entry is eligible for
// lookup while now - insertedAt is strictly less than the TTL; expired
// entries are skipped on read rather than proactively removed. When an insert
// pushes the key count past the capacity, the key at the front of the
// insertion-order queue is evicted (strict FIFO). Overwriting an existing key
// refreshes its timestamp but keeps its queue position.
type MemoryCache struct {
	mu          sync.RWMutex
	entries     map[string]*entry
	order       []string
	ttl         time.Duration
	capacity    int
	now         func() time.Time
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryCache creates a new in-memory result cache. A cleanupFreq of zero
// disables the background sweep, leaving expired entries to lazy removal
// under capacity pressure.
func NewMemoryCache(logger *zap.Logger, ttl time.Duration, capacity int, cleanupFreq time.Duration) *MemoryCache {
	return newMemoryCache(logger, ttl, capacity, cleanupFreq, time.Now)
}

// NewMemoryCacheWithClock creates a cache with an injected clock so expiry
// can be exercised without real time delays.
func NewMemoryCacheWithClock(logger *zap.Logger, ttl time.Duration, capacity int, now func() time.Time) *MemoryCache {
	return newMemoryCache(logger, ttl, capacity, 0, now)
}

func newMemoryCache(logger *zap.Logger, ttl time.Duration, capacity int, cleanupFreq time.Duration, now func() time.Time) *MemoryCache {
	c := &MemoryCache{
		entries:     make(map[string]*entry),
		ttl:         ttl,
		capacity:    capacity,
		now:         now,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go c.startCleanupTask()
	}

	return c
}

// Lookup returns the cached result for url if present and not expired.
// Expiry and absence are indistinguishable to the caller.
func (c *MemoryCache) Lookup(url string) (*core.AnalysisResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[url]
	if !ok {
		return nil, false
	}

	if c.now().Sub(e.insertedAt) >= c.ttl {
		return nil, false
	}

	return e.result, true
}

// Insert stores a result under url with a fresh timestamp, then enforces the
// capacity bound by evicting the oldest-inserted key.
func (c *MemoryCache) Insert(url string, result *core.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[url]; ok {
		e.result = result
		e.insertedAt = c.now()
		return
	}

	c.entries[url] = &entry{result: result, insertedAt: c.now()}
	c.order = append(c.order, url)

	if len(c.entries) > c.capacity {
		evicted := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, evicted)
		c.logger.Debug("Evicted cache entry at capacity", zap.String("url", evicted))
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Cleanup removes expired entries and compacts the insertion queue.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	kept := c.order[:0]
	for _, url := range c.order {
		e, ok := c.entries[url]
		if !ok {
			continue
		}
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, url)
			expiredCount++
			continue
		}
		kept = append(kept, url)
	}
	c.order = kept

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task, if running.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}
