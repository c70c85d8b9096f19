package main

import (
	"fmt"

	"DomainQL/internal/cache"
	"DomainQL/internal/db"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the shared COUNT cache",
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drop every cached COUNT from Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.CountCache.Mode != "redis" {
			return fmt.Errorf("COUNT_CACHE is %q; only the redis cache is shared", cfg.CountCache.Mode)
		}
		rdb, err := db.OpenRedis(cmd.Context(), cfg.CountCache.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		return cache.NewRedis(rdb, 0).Flush(cmd.Context())
	},
}

func init() {
	cacheCmd.AddCommand(cacheFlushCmd)
}
