package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"wealthplan/internal/logger"
)

const cacheKeyPrefix = "price:"

// RedisCache is a Cache backed by Redis string keys with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed price cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns a cached price. Redis errors are logged and reported as misses.
func (c *RedisCache) Get(ctx context.Context, ticker string) (decimal.Decimal, bool) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+ticker).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Get().Warnw("price cache read failed", "ticker", ticker, "error", err.Error())
		}
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		logger.Get().Warnw("price cache holds invalid value", "ticker", ticker, "value", raw)
		return decimal.Zero, false
	}
	return price, true
}

// Set stores a price until the TTL expires. Failures are logged only.
func (c *RedisCache) Set(ctx context.Context, ticker string, price decimal.Decimal) {
	if err := c.client.Set(ctx, cacheKeyPrefix+ticker, price.String(), c.ttl).Err(); err != nil {
		logger.Get().Warnw("price cache write failed", "ticker", ticker, "error", err.Error())
	}
}
