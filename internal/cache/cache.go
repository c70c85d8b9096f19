// Package cache memoizes COUNT results, either in process or in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

const keyPrefix = "count:"

type CountCache interface {
	Get(ctx context.Context, key string) (int64, bool)
	Set(ctx context.Context, key string, n int64)
}

// Key derives the cache key of a COUNT statement.
func Key(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return keyPrefix + hex.EncodeToString(sum[:])
}
