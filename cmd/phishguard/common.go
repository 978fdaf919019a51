package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/phishguard/internal/config"
	"github.com/nao1215/phishguard/internal/database"
	plog "github.com/nao1215/phishguard/internal/log"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag inherited from the root command.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// stringFlag returns the value of a flag that may not be registered when a
// subcommand runs without the root command.
func stringFlag(cmd *cobra.Command, name string) string {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// loadConfig builds the configuration shared by all commands: defaults,
// config file, environment, then the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(stringFlag(cmd, "config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbDir := stringFlag(cmd, "db-dir"); dbDir != "" {
		cfg.DBDir = dbDir
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// newLogger creates the command-line logger writing to the command's stderr.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	return plog.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}

// openDatabase opens the scan database in cfg.DBDir.
func openDatabase(cfg *config.Config, logger *slog.Logger) (*database.ScanDB, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())
	return db, nil
}

// nopCloser adapts a writer that must not be closed.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns the report destination: path when set, otherwise the
// command's stdout. Reports may reveal what a user visited, so files are
// created owner-readable only.
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-chosen report path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
