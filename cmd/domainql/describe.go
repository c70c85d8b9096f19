package main

import (
	"fmt"
	"strings"

	"DomainQL/internal/model"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <domain>",
	Short: "Print what a role sees of a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := offlineResolver()
		if err != nil {
			return err
		}
		desc, err := res.Describe(args[0], queryRole)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), desc)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and link every domain file",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := model.LoadRegistry(cfg.ModelsDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Domains are valid. Found %d:\n", len(reg.Names()))
		for _, name := range reg.Names() {
			fmt.Fprintf(out, "  - %s (roles: %s)\n", name, strings.Join(reg.Roles(name), ", "))
		}
		return nil
	},
}

func init() {
	describeCmd.Flags().StringVar(&queryRole, "role", model.DefaultRole, "caller role")
}
