// Package cmd provides the CLI commands for codii.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/oOSomnus/codii/internal/app"
	"github.com/oOSomnus/codii/internal/config"
	"github.com/oOSomnus/codii/internal/logging"
	"github.com/oOSomnus/codii/pkg/version"
)

var (
	configPath string
	debugMode  bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the codii CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "codii",
		Short:   "Local-first indexing and hybrid search for source repositories",
		Version: version.Version,
		Long: `codii indexes a local repository under a content-addressed file
model, extracts semantic code chunks, and serves hybrid BM25 + vector
search over them, either from the CLI or as an MCP tool server for
AI coding assistants.`,
	}

	root.SetVersionTemplate("codii version {{.Version}}\n")

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a codii config YAML file")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.codii/logs/")

	root.PersistentPreRunE = setupLogging
	root.PersistentPostRunE = teardownLogging

	root.AddCommand(newIndexCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newClearCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	// serve sets up its own MCP-safe, file-only logging in its RunE, which
	// cobra runs after this hook; skip it here so serve's logging is set up
	// only once and never writes to stderr.
	if cmd.Name() == "serve" {
		return nil
	}

	level := "info"
	if debugMode {
		level = "debug"
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.WriteToStderr = false

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// newApp loads configuration and constructs an *app.App, used by every
// subcommand except version.
func newApp() (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return app.New(cfg)
}

// newAppFromConfig constructs an *app.App from an already-loaded Config, for
// callers (like serve) that need the Config value themselves too.
func newAppFromConfig(cfg *config.Config) (*app.App, error) {
	return app.New(cfg)
}
