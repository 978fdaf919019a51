package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/phishguard/internal/config"
	"github.com/nao1215/phishguard/internal/model"
	"github.com/nao1215/phishguard/internal/pipeline"
	"github.com/nao1215/phishguard/internal/report"
	"github.com/nao1215/phishguard/internal/threat"
	"github.com/spf13/cobra"
)

// errAllFailed is returned when none of the given URLs could be analyzed.
var errAllFailed = errors.New("no URL could be analyzed")

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Score URLs for phishing risk",
		Long: `Scan analyzes one or more URLs and prints a risk report.

URLs without a scheme are treated as https. Results are saved to the local
scan history unless --no-save is given.

Examples:
  # Score a single URL
  phishguard scan http://verify-account.tk

  # Score several URLs at once
  phishguard scan paypal.com http://203.0.113.5/login

  # Read URLs from a file, one per line
  phishguard scan --list urls.txt

  # Show every finding with its weight
  phishguard scan --explain http://verify-account.tk

  # Write a Markdown report
  phishguard scan --markdown -o report.md --list urls.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("list", "l", "",
		"Read URLs from a file, one per line ('#' starts a comment)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of URLs analyzed concurrently")
	cmd.Flags().StringP("user", "u", config.DefaultUserID,
		"User that owns the saved scans")
	cmd.Flags().Bool("no-save", false,
		"Do not save results to the scan history")
	cmd.Flags().BoolP("explain", "x", false,
		"List every finding and its weight, including those beyond the top three")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildScanConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.ValidateScan(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cmd, cfg, logger)
}

// buildScanConfig layers scan flags over the loaded configuration.
func buildScanConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("batch") || cfg.BatchSize == 0 {
		if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
			return nil, err
		}
	}
	if cfg.UserID, err = cmd.Flags().GetString("user"); err != nil {
		return nil, err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	if noSave {
		cfg.SaveToDB = false
	}
	if cfg.Explain, err = cmd.Flags().GetBool("explain"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}

	cfg.Targets = append(cfg.Targets, args...)

	listPath, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}
	if listPath != "" {
		f, err := os.Open(listPath) //nolint:gosec // user-provided list path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to open URL list: %w", err)
		}
		defer f.Close()

		urls, err := pipeline.ReadURLList(f)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, urls...)
	}

	return cfg, nil
}

// runScan analyzes cfg.Targets and writes the report.
func runScan(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var saver pipeline.ScanSaver
	if cfg.SaveToDB {
		db, err := openDatabase(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		saver = db
	}

	bp := pipeline.NewBatchProcessor(
		pipeline.NewAnalysisPipeline(threat.NewEngine(), saver, logger),
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	userID := ""
	if cfg.SaveToDB {
		userID = cfg.UserID
	}
	analyses, err := bp.ProcessBatch(ctx, userID, cfg.Targets)
	if err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}

	if err := outputReport(cmd, cfg, analyses); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if s := model.Summarize(analyses); s.Total > 0 && s.Failed == s.Total {
		return errAllFailed
	}
	return nil
}

// outputReport writes analyses in the requested format.
func outputReport(cmd *cobra.Command, cfg *config.Config, analyses []*model.Analysis) error {
	out, err := openOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer out.Close()

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(currentVersion().Version))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out, report.WithMarkdownVerbose(cfg.Explain))
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Explain))
	}

	if _, err := w.Write(analyses); err != nil {
		return err
	}

	if cfg.ReportFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", cfg.ReportFile)
	}
	return nil
}
