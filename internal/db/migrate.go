package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"DomainQL/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies (or, with down, reverts) every migration in dir to the
// Postgres database at dsn.
func Migrate(dsn, dir string, down bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("abs migrations: %w", err)
	}
	// golang-migrate с file:// требует абсолютный путь и прямые слэши
	m, err := migrate.New("file://"+filepath.ToSlash(abs), dsn)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	step, apply := "up", m.Up
	if down {
		step, apply = "down", m.Down
	}
	if err := apply(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migrations_unchanged", map[string]any{"dir": dir})
			return nil
		}
		return fmt.Errorf("migrate %s: %w", step, err)
	}
	version, dirty, _ := m.Version()
	logger.Info("migrations_applied", map[string]any{
		"dir":     dir,
		"step":    step,
		"version": version,
		"dirty":   dirty,
	})
	return nil
}
