package main

import (
	"DomainQL/internal/db"

	"github.com/spf13/cobra"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL migrations to POSTGRES_DSN",
	Example: `  domainql migrate
  MIGRATIONS_DIR=./migrations domainql migrate --down`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return db.Migrate(cfg.PostgresDSN, cfg.MigrationsDir, migrateDown)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "revert every migration")
}
