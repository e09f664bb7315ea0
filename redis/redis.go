package redis

import (
	"context"
	"errors"
	"time"

	"encrypted-notes/internal/codec"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is a versioned cache of CBOR encoded values. A nil Cache, or one without a client,
// misses every lookup, so callers run the same code with Redis down.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewCache(client *redis.Client, logger zerolog.Logger) *Cache {
	return &Cache{client: client, logger: logger.With().Str("component", "cache").Logger()}
}

// InitRedis connects to addr. An empty addr or a failed ping yields a
// disabled cache.
func InitRedis(ctx context.Context, addr string, logger zerolog.Logger) *Cache {
	if addr == "" {
		logger.Info().Msg("redis address not set, running without cache")
		return NewCache(nil, logger)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis not available, running without cache")
		client.Close()
		return NewCache(nil, logger)
	}

	logger.Info().Str("addr", addr).Msg("redis connected")
	return NewCache(client, logger)
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the value at key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := codec.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.enabled() {
		return
	}
	data, err := codec.Marshal(value)
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// GetVersion returns the counter at key, 0 when absent.
func (c *Cache) GetVersion(ctx context.Context, key string) int64 {
	if !c.enabled() {
		return 0
	}
	v, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return v
}

// IncrementVersion bumps the counter at key, invalidating every entry
// whose key embeds the old version.
func (c *Cache) IncrementVersion(ctx context.Context, key string) {
	if !c.enabled() {
		return
	}
	if err := c.client.Incr(ctx, key).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache version bump failed")
	}
}

func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}
