package main

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/phishguard/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultConfigFile {
			t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" {
			t.Errorf("expected shorthand 'f', got %q", flag.Shorthand)
		}
	})
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates config file", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "nested", ".phishguard")
		out, err := executeRoot(t, "init", "-o", outputPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, outputPath) {
			t.Errorf("expected output to mention %q, got %q", outputPath, out)
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			t.Fatalf("expected config file: %v", err)
		}
		if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
			t.Errorf("got permissions %o, expected 0600", info.Mode().Perm())
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".phishguard")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := executeRoot(t, "init", "-o", outputPath); err == nil {
			t.Fatal("expected error for existing file")
		}
		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "existing" {
			t.Error("expected existing file to be preserved")
		}

		if _, err := executeRoot(t, "init", "-o", outputPath, "-f"); err != nil {
			t.Fatalf("unexpected error with force: %v", err)
		}
		content, err = os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) == "existing" {
			t.Error("expected file to be overwritten")
		}
	})

	t.Run("template matches the defaults", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "config.yaml")
		if _, err := executeRoot(t, "init", "-o", outputPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f, err := config.LoadConfigFile(outputPath)
		if err != nil {
			t.Fatalf("template does not parse: %v", err)
		}

		cfg := config.NewConfig()
		cfg.ApplyFile(f)
		defaults := config.NewConfig()

		if cfg.ListenAddress != defaults.ListenAddress {
			t.Errorf("got %q, expected %q", cfg.ListenAddress, defaults.ListenAddress)
		}
		if !slices.Equal(cfg.CORSOrigins, defaults.CORSOrigins) {
			t.Errorf("got %v, expected %v", cfg.CORSOrigins, defaults.CORSOrigins)
		}
		if cfg.RateLimitPerMinute != defaults.RateLimitPerMinute {
			t.Errorf("got %d, expected %d", cfg.RateLimitPerMinute, defaults.RateLimitPerMinute)
		}
		if cfg.MaxBulkURLs != defaults.MaxBulkURLs || cfg.BatchSize != defaults.BatchSize {
			t.Errorf("unexpected analysis settings: %d, %d", cfg.MaxBulkURLs, cfg.BatchSize)
		}
		if !cfg.SaveToDB {
			t.Error("expected database to stay enabled")
		}
	})
}
