package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oOSomnus/codii/internal/config"
	"github.com/oOSomnus/codii/internal/logging"
	"github.com/oOSomnus/codii/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run codii as an MCP tool server over stdio",
		Long: `Runs codii's index/search/clear operations as MCP tools over
stdio, for AI coding assistants that speak the Model Context Protocol.

The MCP stdio transport reserves stdout exclusively for JSON-RPC frames;
this command never writes anything else to stdout, and logs to a file
instead of stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := "info"
			if debugMode {
				level = "debug"
			}
			cleanup, err := logging.SetupServeMode(level)
			if err != nil {
				return fmt.Errorf("setting up serve-mode logging: %w", err)
			}
			loggingCleanup = cleanup

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			a, err := newAppFromConfig(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			server := mcpserver.New(a)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			slog.Info("codii serve starting", slog.String("base_dir", cfg.BaseDir))
			return server.Serve(ctx)
		},
	}
}
