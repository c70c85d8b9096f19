package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"DomainQL/internal/input"
	"DomainQL/internal/model"
	"DomainQL/internal/query"

	"github.com/spf13/cobra"
)

var (
	queryDomain string
	queryRole   string
	queryFile   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one request against the database and print the result",
	Example: `  # Request from a file
  domainql fetch --domain course --role admin --file request.json

  # Request from stdin
  echo '{"fields":{"name":true}}' | domainql fetch --domain course`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readRequest(cmd.InOrStdin())
		if err != nil {
			return err
		}
		reg, err := model.LoadRegistry(cfg.ModelsDir)
		if err != nil {
			return err
		}
		exec, closeDB, err := openExecutor(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		res, err := buildResolver(reg, exec, nil)
		if err != nil {
			return err
		}
		out, err := res.Fetch(cmd.Context(), queryDomain, queryRole, raw)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Print the sanitized request and its errors without querying",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readRequest(cmd.InOrStdin())
		if err != nil {
			return err
		}
		res, err := offlineResolver()
		if err != nil {
			return err
		}
		req, errs, err := res.Build(queryDomain, queryRole, raw)
		if err != nil {
			return err
		}
		if errs == nil {
			errs = []query.InputError{}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"request": req, "errors": errs})
	},
}

func init() {
	for _, c := range []*cobra.Command{fetchCmd, buildCmd} {
		c.Flags().StringVar(&queryDomain, "domain", "", "domain name")
		c.Flags().StringVar(&queryRole, "role", model.DefaultRole, "caller role")
		c.Flags().StringVarP(&queryFile, "file", "f", "-", "request JSON or YAML file, - for stdin")
		_ = c.MarkFlagRequired("domain")
	}
}

func readRequest(stdin io.Reader) (input.Node, error) {
	var (
		data []byte
		err  error
	)
	if queryFile == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(queryFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return input.Parse(data)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
