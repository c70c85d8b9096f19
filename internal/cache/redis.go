package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DomainQL/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Redis shares COUNT results between instances.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, key string) (int64, bool) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("count_cache_get_failed", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		}
		return 0, false
	}
	return n, true
}

func (c *Redis) Set(ctx context.Context, key string, n int64) {
	if err := c.rdb.Set(ctx, key, n, c.ttl).Err(); err != nil {
		logger.Warn("count_cache_set_failed", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Flush удаляет все закэшированные COUNT из Redis
func (c *Redis) Flush(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 1000).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	return nil
}
