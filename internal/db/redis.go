package db

import (
	"context"
	"fmt"

	"DomainQL/internal/logger"

	"github.com/redis/go-redis/v9"
)

const defaultRedisAddr = "localhost:6379"

// OpenRedis connects to addr and pings it; the count cache and `cache flush`
// share the same client setup.
func OpenRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		addr = defaultRedisAddr
		logger.Warn("redis_default_addr", map[string]any{"addr": addr})
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}
