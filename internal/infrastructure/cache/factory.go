package cache

import (
	"context"
	"fmt"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StatsCache is implemented by every stats cache backend
type StatsCache interface {
	Get(ctx context.Context) (*invoicing.Stats, bool, error)
	Generation(ctx context.Context) (uint64, error)
	Set(ctx context.Context, stats *invoicing.Stats, generation uint64) (bool, error)
	Invalidate(ctx context.Context) error
	Close() error
	Name() string
}

var (
	_ StatsCache = (*RedisStatsCache)(nil)
	_ StatsCache = (*InMemoryStatsCache)(nil)
)

// StatsCacheFactory creates stats caches based on configuration
type StatsCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StatsCacheFactoryOption is a functional option for configuring the factory
type StatsCacheFactoryOption func(*StatsCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StatsCacheFactoryOption {
	return func(f *StatsCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) StatsCacheFactoryOption {
	return func(f *StatsCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStatsCacheFactory creates a new factory
func NewStatsCacheFactory(cfg config.RedisConfig, opts ...StatsCacheFactoryOption) *StatsCacheFactory {
	f := &StatsCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache creates a Redis-backed stats cache
func (f *StatsCacheFactory) CreateRedisCache() (*RedisStatsCache, error) {
	c, err := NewRedisStatsCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.redisConfig.StatsTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis stats cache: %w", err)
	}
	return c, nil
}

// CreateCache returns a Redis cache when a Redis host is configured and
// reachable, otherwise an in-memory cache (unless fallback is disabled)
func (f *StatsCacheFactory) CreateCache() (StatsCache, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory stats cache")
		return NewInMemoryStatsCache(f.redisConfig.StatsTTL), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("Using Redis stats cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for stats cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stats cache. "+
		"Instances will not share invalidations.",
		zap.Error(err),
	)
	return NewInMemoryStatsCache(f.redisConfig.StatsTTL), nil
}
