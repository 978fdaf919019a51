package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	plog "github.com/nao1215/phishguard/internal/log"
	"github.com/nao1215/phishguard/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the PhishGuard HTTP API",
		Long: `Serve starts the HTTP API used by browser extensions and mobile clients.

The listen address comes from --listen, the config file, or the PORT
environment variable. Without a database (--no-db) analysis still works;
statistics and history return empty values and other user endpoints
answer 503.

Examples:
  # Listen on the default address (:8000)
  phishguard serve

  # Listen on localhost only, with JSON logs
  phishguard serve --listen 127.0.0.1:8080 --json-log`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("listen", "", "Listen address (host:port)")
	cmd.Flags().Bool("no-db", false, "Run without the scan database")
	cmd.Flags().Bool("json-log", false, "Write logs as JSON")
	cmd.Flags().Int("rate-limit", 0, "Requests per minute per client address (0 keeps the configured value)")
	cmd.Flags().StringSlice("cors-origin", nil, "Allowed CORS origin (repeatable, default *)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.ListenAddress = listen
	}
	if noDB, _ := cmd.Flags().GetBool("no-db"); noDB {
		cfg.SaveToDB = false
	}
	if rl, _ := cmd.Flags().GetInt("rate-limit"); rl > 0 {
		cfg.RateLimitPerMinute = rl
	}
	if origins, _ := cmd.Flags().GetStringSlice("cors-origin"); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	jsonLog, err := cmd.Flags().GetBool("json-log")
	if err != nil {
		return err
	}
	logger := plog.NewServerLogger(cmd.ErrOrStderr(), cfg.Verbose, jsonLog)

	opts := []server.Option{
		server.WithConfig(cfg),
		server.WithLogger(logger),
		server.WithVersion(currentVersion().Version),
	}
	if cfg.SaveToDB {
		db, err := openDatabase(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, server.WithStore(db))
	} else {
		logger.Warn("running without database; user endpoints are limited")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(opts...).Run(ctx, cfg.ListenAddress)
}
