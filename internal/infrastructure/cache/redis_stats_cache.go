package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/redis/go-redis/v9"
)

const defaultStatsKey = "invoicer:stats:invoices"

// setIfGeneration writes the stats only while the generation key still holds
// the value read before the stats were loaded
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// RedisStatsCache stores the invoice dashboard stats in Redis so every API
// instance shares the same snapshot and invalidation
type RedisStatsCache struct {
	client     *redis.Client
	ownsClient bool
	key        string
	genKey     string
	ttl        time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisStatsCache connects to Redis and verifies the connection
func NewRedisStatsCache(cfg RedisConfig, ttl time.Duration) (*RedisStatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisStatsCacheWithClient(client, "", ttl)
	c.ownsClient = true
	return c, nil
}

// NewRedisStatsCacheWithClient creates a cache on an existing client. The
// caller keeps ownership of the client.
func NewRedisStatsCacheWithClient(client *redis.Client, key string, ttl time.Duration) *RedisStatsCache {
	if key == "" {
		key = defaultStatsKey
	}
	return &RedisStatsCache{client: client, key: key, genKey: key + ":generation", ttl: ttl}
}

// Get returns the cached stats. A miss is reported with ok == false.
func (c *RedisStatsCache) Get(ctx context.Context) (*invoicing.Stats, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read stats from Redis: %w", err)
	}

	stats, err := decodeStats(data)
	if err != nil {
		// A corrupt entry is treated as a miss and dropped
		_ = c.client.Del(ctx, c.key).Err()
		return nil, false, nil
	}
	return stats, true, nil
}

// Generation returns the invalidation counter shared by every instance
func (c *RedisStatsCache) Generation(ctx context.Context) (uint64, error) {
	n, err := c.client.Get(ctx, c.genKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stats generation from Redis: %w", err)
	}
	return n, nil
}

// Set stores the stats with the configured TTL unless the cache was
// invalidated after generation was read
func (c *RedisStatsCache) Set(ctx context.Context, stats *invoicing.Stats, generation uint64) (bool, error) {
	data, err := encodeStats(stats)
	if err != nil {
		return false, fmt.Errorf("failed to encode stats: %w", err)
	}
	stored, err := setIfGeneration.Run(ctx, c.client, []string{c.key, c.genKey},
		strconv.FormatUint(generation, 10), data, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to write stats to Redis: %w", err)
	}
	return stored == 1, nil
}

// Invalidate drops the cached stats and advances the generation
func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate stats in Redis: %w", err)
	}
	return nil
}

// Close closes the Redis client when the cache created it
func (c *RedisStatsCache) Close() error {
	if !c.ownsClient {
		return nil
	}
	return c.client.Close()
}

// Name identifies the backend in logs
func (c *RedisStatsCache) Name() string {
	return "redis"
}
