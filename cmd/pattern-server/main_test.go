package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pattern-atlas-service/pkg/config"
)

func TestLogLevelFlag(t *testing.T) {
	t.Run("Default log level flag value is INFO", func(t *testing.T) {
		cmd := newRootCommand()
		flag := cmd.Flags().Lookup("log-level")
		if flag == nil {
			t.Fatal("Expected a log-level flag")
		}
		if flag.DefValue != "INFO" {
			t.Errorf("Expected default log level to be INFO, got %s", flag.DefValue)
		}
	})

	t.Run("Explicit flag overrides the config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "atlas.yaml")
		if err := os.WriteFile(path, []byte("logging:\n  level: WARN\n"), 0o644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		cfg, err := loadConfig(path, "DEBUG", true)
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.Logging.Level != "DEBUG" {
			t.Errorf("Expected DEBUG, got %s", cfg.Logging.Level)
		}

		cfg, err = loadConfig(path, "INFO", false)
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.Logging.Level != "WARN" {
			t.Errorf("Expected the file level WARN, got %s", cfg.Logging.Level)
		}
	})
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "INFO", false); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Server.Mode = "test"
	cfg.Catalog.Watch = false
	cfg.Logging.Level = "ERROR"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for the server to stop")
	}
}

func TestExplicitEnvFileMustExist(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err == nil {
		t.Error("Expected an error for a missing explicit env file")
	}
}
