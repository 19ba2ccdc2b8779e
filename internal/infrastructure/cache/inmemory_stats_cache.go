package cache

import (
	"context"
	"sync"
	"time"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// InMemoryStatsCache keeps the stats snapshot in process memory. It is
// suitable for single-instance deployments and testing.
type InMemoryStatsCache struct {
	mu         sync.RWMutex
	stats      *invoicing.Stats
	generation uint64
	expiresAt  time.Time
	ttl        time.Duration
	now        func() time.Time
}

// NewInMemoryStatsCache creates an in-memory cache. A zero ttl never expires.
func NewInMemoryStatsCache(ttl time.Duration) *InMemoryStatsCache {
	return &InMemoryStatsCache{ttl: ttl, now: time.Now}
}

// Get returns the cached stats while they are fresh
func (c *InMemoryStatsCache) Get(ctx context.Context) (*invoicing.Stats, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.stats == nil {
		return nil, false, nil
	}
	if c.ttl > 0 && !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	return cloneStats(c.stats), true, nil
}

// Generation returns the invalidation counter
func (c *InMemoryStatsCache) Generation(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, nil
}

// Set stores a copy of the stats unless the cache was invalidated after
// generation was read
func (c *InMemoryStatsCache) Set(ctx context.Context, stats *invoicing.Stats, generation uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return false, nil
	}
	c.stats = cloneStats(stats)
	c.expiresAt = c.now().Add(c.ttl)
	return true, nil
}

// Invalidate drops the cached stats and advances the generation
func (c *InMemoryStatsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = nil
	c.generation++
	return nil
}

// Close is a no-op
func (c *InMemoryStatsCache) Close() error {
	return nil
}

// Name identifies the backend in logs
func (c *InMemoryStatsCache) Name() string {
	return "memory"
}
