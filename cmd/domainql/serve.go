package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"DomainQL/internal/auth"
	"DomainQL/internal/handler"
	"DomainQL/internal/logger"
	"DomainQL/internal/model"
	"DomainQL/internal/router"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /api/fetch, /api/build and /api/schema over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg, err := model.LoadRegistry(cfg.ModelsDir)
		if err != nil {
			logger.Error("registry_init_failed", map[string]any{"error": err.Error()})
			return err
		}
		exec, closeDB, err := openExecutor(ctx, cfg)
		if err != nil {
			logger.Error("db_init_failed", map[string]any{"error": err.Error()})
			return err
		}
		defer closeDB()
		counts, err := countCache(ctx, cfg)
		if err != nil {
			logger.Error("count_cache_init_failed", map[string]any{"error": err.Error()})
			return err
		}
		res, err := buildResolver(reg, exec, counts)
		if err != nil {
			logger.Error("resolver_init_failed", map[string]any{"error": err.Error()})
			return err
		}

		opts := router.Options{CORS: cfg.CORS}
		if cfg.Auth.Enabled {
			if opts.Auth, err = auth.NewJWTValidator(cfg.Auth.JWT); err != nil {
				logger.Error("auth_init_failed", map[string]any{"error": err.Error()})
				return err
			}
		}
		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router.New(handler.New(res, cfg.Auth.RoleClaim), opts),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			logger.Info("server_start", map[string]any{"port": cfg.Port, "domains": res.Domains()})
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server_error", map[string]any{"error": err.Error()})
				return err
			}
			return nil
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("server_stop", nil)
		return srv.Shutdown(shutdownCtx)
	},
}
