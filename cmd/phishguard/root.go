package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for PhishGuard.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishguard",
		Short: "Phishing risk scoring for URLs",
		Long: `PhishGuard scores URLs for phishing risk.

Each URL is checked for suspicious keywords, unusual structure, missing
HTTPS, raw IP hosts, abused top-level domains, credential-harvesting paths
and digit look-alikes. The result is a risk score from 0 to 100, a status
(safe, warning or dangerous) and up to three threat descriptions.

Results can be kept in a local history and the same analysis is available
over HTTP with "phishguard serve".`,
		Version:       currentVersion().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .phishguard in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"Directory of the scan database (default: XDG data directory)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewRulesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
