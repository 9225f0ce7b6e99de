package cli

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/claude/runplan/internal/client"
	"github.com/claude/runplan/internal/mcp"
	"github.com/claude/runplan/internal/storage"
)

func mcpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		Long: "Serve the MCP tools over stdio. Calculations run locally with the config defaults. " +
			"Saved plans come from --server when set, otherwise from the configured store.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr.
			log := stderrLogger()

			var plans mcp.PlanSource
			switch {
			case opts.serverURL != "":
				plans = client.NewClient(opts.serverURL, opts.apiKey)
			default:
				store, err := storage.Open(cmd.Context(), cfg.Storage, "migrations")
				if err != nil {
					return fmt.Errorf("opening storage: %w", err)
				}
				if store != nil {
					defer store.Close()
					plans = store
				}
			}

			s := mcp.New(cfg.Defaults, plans, Version, log)
			return mcpserver.ServeStdio(s)
		},
	}
}
