package main

import (
	"fmt"

	"github.com/nao1215/phishguard/internal/config"
	"github.com/nao1215/phishguard/internal/report"
	"github.com/spf13/cobra"
)

// statsOutput is the JSON form of the stats command, matching the API.
type statsOutput struct {
	UserID           string `json:"user_id"`
	ThreatsBlocked   int    `json:"threats_blocked"`
	SafeSites        int    `json:"safe_sites"`
	Warnings         int    `json:"warnings"`
	ScansTotal       int    `json:"scans_total"`
	BackgroundScans  int    `json:"background_scans"`
	ProtectionActive bool   `json:"protection_active"`
}

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show scan statistics for a user",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringP("user", "u", config.DefaultUserID, "User whose statistics are shown")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	userID, err := cmd.Flags().GetString("user")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg, newLogger(cmd, cfg.Verbose))
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.UserStats(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("failed to read statistics: %w", err)
	}

	if asJSON {
		_, err := report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).Encode(statsOutput{
			UserID:           userID,
			ThreatsBlocked:   stats.ThreatsBlocked(),
			SafeSites:        stats.Safe,
			Warnings:         stats.Warning,
			ScansTotal:       stats.ScansTotal(),
			BackgroundScans:  stats.BackgroundScans,
			ProtectionActive: stats.ProtectionActive,
		})
		return err
	}
	return report.NewHistoryWriter(cmd.OutOrStdout()).WriteStats(userID, stats)
}
