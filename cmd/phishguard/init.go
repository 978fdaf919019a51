package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/phishguard/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/phishguard.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a PhishGuard configuration file",
		Long: `Init writes a commented .phishguard configuration file.

The file documents the API server, analysis and database settings with
their default values.

Examples:
  # Create .phishguard in the current directory
  phishguard init

  # Create the config file at a specific path
  phishguard init -o ~/.config/phishguard/config.yaml

  # Overwrite an existing file
  phishguard init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, configTemplate, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	return nil
}
