package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampleStats() *invoicing.Stats {
	stats := invoicing.NewStats()
	stats.TotalInvoices = 3
	stats.TotalRevenue = decimal.RequireFromString("180.60")
	stats.StatusCounts[invoicing.StatusPaid] = 2
	stats.StatusCounts[invoicing.StatusDraft] = 1
	return stats
}

func TestStatsCodec(t *testing.T) {
	data, err := encodeStats(sampleStats())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_revenue":"180.6"`)

	decoded, err := decodeStats(data)
	require.NoError(t, err)
	assert.Equal(t, int64(3), decoded.TotalInvoices)
	assert.True(t, decoded.TotalRevenue.Equal(decimal.RequireFromString("180.6")))
	assert.Equal(t, int64(2), decoded.StatusCounts[invoicing.StatusPaid])
	assert.Equal(t, int64(0), decoded.StatusCounts[invoicing.StatusOverdue])

	_, err = decodeStats([]byte("not json"))
	assert.Error(t, err)
}

func TestInMemoryStatsCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss before set", func(t *testing.T) {
		c := NewInMemoryStatsCache(time.Minute)
		stats, ok, err := c.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, stats)
	})

	t.Run("returns a copy of the stored stats", func(t *testing.T) {
		c := NewInMemoryStatsCache(time.Minute)
		stored, err := c.Set(ctx, sampleStats(), 0)
		require.NoError(t, err)
		require.True(t, stored)

		first, ok, err := c.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		first.StatusCounts[invoicing.StatusPaid] = 99

		second, _, _ := c.Get(ctx)
		assert.Equal(t, int64(2), second.StatusCounts[invoicing.StatusPaid])
	})

	t.Run("expires after the ttl", func(t *testing.T) {
		c := NewInMemoryStatsCache(time.Minute)
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }
		_, err := c.Set(ctx, sampleStats(), 0)
		require.NoError(t, err)

		now = now.Add(59 * time.Second)
		_, ok, _ := c.Get(ctx)
		assert.True(t, ok)

		now = now.Add(time.Second)
		_, ok, _ = c.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("invalidate clears the entry", func(t *testing.T) {
		c := NewInMemoryStatsCache(0)
		_, err := c.Set(ctx, sampleStats(), 0)
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(ctx))

		_, ok, _ := c.Get(ctx)
		assert.False(t, ok)
		assert.NoError(t, c.Close())
	})

	t.Run("set after a concurrent invalidation is dropped", func(t *testing.T) {
		c := NewInMemoryStatsCache(time.Minute)
		generation, err := c.Generation(ctx)
		require.NoError(t, err)

		// an invoice changes while the stale stats are being loaded
		require.NoError(t, c.Invalidate(ctx))

		stored, err := c.Set(ctx, sampleStats(), generation)
		require.NoError(t, err)
		assert.False(t, stored)
		_, ok, _ := c.Get(ctx)
		assert.False(t, ok)

		generation, err = c.Generation(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), generation)
		stored, err = c.Set(ctx, sampleStats(), generation)
		require.NoError(t, err)
		assert.True(t, stored)
		_, ok, _ = c.Get(ctx)
		assert.True(t, ok)
	})
}

func TestRedisStatsCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisStatsCacheWithClient(client, "", time.Minute)
	assert.Equal(t, defaultStatsKey, c.key)
	assert.Equal(t, "redis", c.Name())

	_, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, defaultStatsKey+":generation", c.genKey)
	_, err = c.Generation(context.Background())
	assert.Error(t, err)
	stored, err := c.Set(context.Background(), sampleStats(), 0)
	assert.Error(t, err)
	assert.False(t, stored)
	assert.Error(t, c.Invalidate(context.Background()))
	// Shared clients are left open for their owner
	assert.NoError(t, c.Close())
}

func TestStatsCacheFactory(t *testing.T) {
	t.Run("no redis host gives in-memory cache", func(t *testing.T) {
		f := NewStatsCacheFactory(config.RedisConfig{StatsTTL: time.Minute})

		c, err := f.CreateCache()
		require.NoError(t, err)
		assert.Equal(t, "memory", c.Name())
	})

	t.Run("falls back when redis is unreachable", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		f := NewStatsCacheFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1}, WithLogger(zap.New(core)))

		c, err := f.CreateCache()
		require.NoError(t, err)
		assert.Equal(t, "memory", c.Name())
		assert.Len(t, recorded.All(), 1)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		f := NewStatsCacheFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1}, WithInMemoryFallback(false))

		_, err := f.CreateCache()
		assert.Error(t, err)
	})
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return c.err
}

func TestStatsInvalidationHandler(t *testing.T) {
	inv := &invoicing.Invoice{}
	inv.ID = uuid.New()
	target := &countingInvalidator{}
	h := NewStatsInvalidationHandler(target)

	assert.ElementsMatch(t, invoicing.AllEventTypes(), h.EventTypes())
	require.NoError(t, h.Handle(context.Background(), invoicing.NewInvoiceDeletedEvent(inv)))
	assert.Equal(t, 1, target.calls)

	target.err = errors.New("redis down")
	assert.Error(t, h.Handle(context.Background(), invoicing.NewInvoiceUpdatedEvent(inv)))
}
