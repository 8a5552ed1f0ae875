package logging

import "log/slog"

// SetupServeMode initializes file-only logging for `codii serve`. The MCP
// stdio transport uses stdout exclusively for JSON-RPC frames; any other
// write to stdout or stderr corrupts the protocol stream, so this mode
// never enables WriteToStderr regardless of what the loaded Config asked
// for.
func SetupServeMode(level string) (func(), error) {
	cfg := Config{
		Level:         level,
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("serve mode logging initialized", slog.String("log_file", cfg.FilePath), slog.String("level", cfg.Level))
	return cleanup, nil
}
