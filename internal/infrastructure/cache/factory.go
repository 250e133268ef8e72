package cache

import (
	"context"
	"fmt"

	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles what the server takes from Redis, or its in-process stand-ins
type Stores struct {
	Idempotency shared.IdempotencyStore
	// Locker is nil without Redis; a single instance needs no cross-process lock
	Locker *RedisLocker
	client *redis.Client
}

// Close releases the Redis connection if one was opened
func (s *Stores) Close() error {
	return s.Idempotency.Close()
}

// Client returns the Redis client, nil when running in memory
func (s *Stores) Client() *redis.Client {
	return s.client
}

// FactoryOption configures NewStores
type FactoryOption func(*factory)

type factory struct {
	logger   *zap.Logger
	fallback bool
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *factory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to memory.
// On by default.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *factory) { f.fallback = allow }
}

// NewStores builds Redis backed stores when Redis is enabled, in-memory ones otherwise
func NewStores(ctx context.Context, cfg config.RedisConfig, opts ...FactoryOption) (*Stores, error) {
	f := &factory{logger: zap.NewNop(), fallback: true}
	for _, opt := range opts {
		opt(f)
	}

	if !cfg.Enabled {
		f.logger.Info("redis disabled, using in-memory idempotency store")
		return &Stores{Idempotency: NewInMemoryIdempotencyStore()}, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if !f.fallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
		return &Stores{Idempotency: NewInMemoryIdempotencyStore()}, nil
	}

	f.logger.Info("using redis stores", zap.String("addr", cfg.Addr()))
	return &Stores{
		Idempotency: NewRedisIdempotencyStore(client),
		Locker:      NewRedisLocker(client),
		client:      client,
	}, nil
}
