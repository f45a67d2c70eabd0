package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedisCache backs the name cache with Redis so multi-process
// deployments share one set of resolved names. Failures degrade to a
// miss; they never break a scan.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(addr string, ttl time.Duration) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultNameTTL
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: log.With().Str("component", "redis_cache").Logger(),
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, symbol string) (string, bool) {
	name, err := c.client.Get(ctx, nameKey(symbol)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Redis read failed")
		}
		return "", false
	}
	return name, true
}

func (c *RedisCache) Set(ctx context.Context, symbol, name string) {
	if err := c.client.Set(ctx, nameKey(symbol), name, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Redis write failed")
	}
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func nameKey(symbol string) string {
	return "stockname:" + symbol
}
