package main

import (
	"fmt"
	"os"

	"DomainQL/internal/config"
	"DomainQL/internal/logger"

	"github.com/spf13/cobra"
)

var (
	// set during PersistentPreRunE
	cfg *config.Config

	debug     bool
	modelsDir string
)

var rootCmd = &cobra.Command{
	Use:   "domainql",
	Short: "Role-aware query compiler over YAML-described domains",
	Long: `domainql - role-aware query compiler

Callers send {fields, filters, options} for a domain. The request is sanitized
against what their role may see and compiled into a COUNT, a data query and one
follow-up query per requested one-to-many relation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		// the server keeps log/app.log; one-shot commands log to stderr
		if cmd.Name() == serveCmd.Name() {
			if err := logger.Init("."); err != nil {
				return fmt.Errorf("log init failed: %w", err)
			}
		} else {
			logger.SetOutput(os.Stderr)
		}
		logger.SetDebug(debug)

		cfg = config.LoadConfig()
		if modelsDir != "" {
			cfg.ModelsDir = modelsDir
		}
		return cfg.Validate()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

const (
	groupServe  = "serve"
	groupQuery  = "query"
	groupSchema = "schema"
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging (SQL text)")
	rootCmd.PersistentFlags().StringVar(&modelsDir, "models", "", "domain YAML directory (default: MODELS_DIR or ./db)")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupServe, Title: "Server:"},
		&cobra.Group{ID: groupQuery, Title: "Query:"},
		&cobra.Group{ID: groupSchema, Title: "Schema:"},
	)

	serveCmd.GroupID = groupServe
	cacheCmd.GroupID = groupServe
	rootCmd.AddCommand(serveCmd, cacheCmd)

	fetchCmd.GroupID = groupQuery
	buildCmd.GroupID = groupQuery
	rootCmd.AddCommand(fetchCmd, buildCmd)

	describeCmd.GroupID = groupSchema
	validateCmd.GroupID = groupSchema
	migrateCmd.GroupID = groupSchema
	rootCmd.AddCommand(describeCmd, validateCmd, migrateCmd)
}
