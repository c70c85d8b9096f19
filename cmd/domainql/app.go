package main

import (
	"context"
	"errors"
	"time"

	"DomainQL/internal/builder"
	"DomainQL/internal/cache"
	"DomainQL/internal/config"
	"DomainQL/internal/db"
	"DomainQL/internal/logger"
	"DomainQL/internal/model"
	"DomainQL/internal/resolver"
)

// openExecutor connects the configured driver; the returned func releases it.
func openExecutor(ctx context.Context, c *config.Config) (db.Executor, func(), error) {
	switch c.DBDriver {
	case "pgx":
		pg, err := db.OpenPostgres(ctx, c.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("postgres_connected", nil)
		return pg, pg.Close, nil
	default:
		s, err := db.OpenSQL(c.DBDriver, c.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sql_connected", map[string]any{"driver": c.DBDriver})
		return s, func() { _ = s.Close() }, nil
	}
}

// countCache returns nil when caching is off.
func countCache(ctx context.Context, c *config.Config) (cache.CountCache, error) {
	ttl := time.Duration(c.CountCache.TTLSec) * time.Second
	switch c.CountCache.Mode {
	case "memory":
		return cache.NewMemory(ttl, c.CountCache.MaxEntries), nil
	case "redis":
		rdb, err := db.OpenRedis(ctx, c.CountCache.RedisAddr)
		if err != nil {
			return nil, err
		}
		return cache.NewRedis(rdb, ttl), nil
	}
	return nil, nil
}

func buildResolver(reg *model.Registry, exec db.Executor, counts cache.CountCache) (*resolver.Resolver, error) {
	opts := []resolver.Option{resolver.WithLimits(builder.Options{
		DefaultLimit: cfg.Query.DefaultLimit,
		MaxLimit:     cfg.Query.MaxLimit,
	})}
	if counts != nil {
		opts = append(opts, resolver.WithCountCache(counts))
	}
	return resolver.New(reg, exec, opts...)
}

var errOffline = errors.New("no database connection in this command")

// offlineResolver serves schema and build commands without a database.
func offlineResolver() (*resolver.Resolver, error) {
	reg, err := model.LoadRegistry(cfg.ModelsDir)
	if err != nil {
		return nil, err
	}
	return buildResolver(reg, db.ExecutorFunc(func(context.Context, string) ([]db.Row, error) {
		return nil, errOffline
	}), nil)
}
