// Package db holds the executors the compiler runs SQL through, plus the
// Redis client used by the count cache.
package db

import "context"

// Row is one result row keyed by column alias.
type Row = map[string]any

// Executor runs one SQL statement and returns its rows in order.
type Executor interface {
	Query(ctx context.Context, sql string) ([]Row, error)
}

// ExecutorFunc adapts a function (a fixture, a recorder) to Executor.
type ExecutorFunc func(ctx context.Context, sql string) ([]Row, error)

func (f ExecutorFunc) Query(ctx context.Context, sql string) ([]Row, error) {
	return f(ctx, sql)
}
