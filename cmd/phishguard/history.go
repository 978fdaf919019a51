package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/phishguard/internal/config"
	"github.com/nao1215/phishguard/internal/database"
	"github.com/nao1215/phishguard/internal/model"
	"github.com/nao1215/phishguard/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved scans",
		Long: `History lists saved scans, newest first.

Examples:
  # Show the last 10 scans
  phishguard history

  # Show earlier scans
  phishguard history -n 20 --offset 10

  # Show every saved scan of one URL
  phishguard history --url http://verify-account.tk

  # Delete a scan
  phishguard history delete 0b7c1f9e-...`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.PersistentFlags().StringP("user", "u", config.DefaultUserID, "User whose scans are shown")
	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit, "Number of scans to show")
	cmd.Flags().Int("offset", 0, "Number of newest scans to skip")
	cmd.Flags().String("url", "", "Only show scans of this URL")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	cmd.AddCommand(newHistoryDeleteCmd())
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("limit") {
		if cfg.HistoryLimit, err = cmd.Flags().GetInt("limit"); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	userID, err := cmd.Flags().GetString("user")
	if err != nil {
		return err
	}
	offset, err := cmd.Flags().GetInt("offset")
	if err != nil {
		return err
	}
	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg.Verbose)
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var records []model.ScanRecord
	if url != "" {
		records, err = db.FindScansByURL(cmd.Context(), userID, url, cfg.HistoryLimit)
	} else {
		records, err = db.ListScans(cmd.Context(), userID, cfg.HistoryLimit, offset)
	}
	if err != nil {
		return err
	}

	if asJSON {
		if records == nil {
			records = []model.ScanRecord{}
		}
		_, err := report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).Encode(records)
		return err
	}
	return report.NewHistoryWriter(cmd.OutOrStdout()).WriteScans(records)
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <scan-id>",
		Short: "Delete a saved scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			userID, err := cmd.Flags().GetString("user")
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg, newLogger(cmd, cfg.Verbose))
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteScan(cmd.Context(), args[0], userID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("scan %s not found for user %s", args[0], userID)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted scan %s\n", args[0])
			return nil
		},
	}
}
