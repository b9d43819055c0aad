package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pattern-atlas-service/internal/server"
	"pattern-atlas-service/pkg/config"
	"pattern-atlas-service/pkg/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath, logLevel, envFile string

	cmd := &cobra.Command{
		Use:          "pattern-server",
		Short:        "Serve the design pattern atlas over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the default .env is optional; an explicit --env-file must exist
			if err := config.LoadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			cfg, err := loadConfig(configPath, logLevel, cmd.Flags().Changed("log-level"))
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	cmd.Flags().StringVar(&logLevel, "log-level", "INFO", "Logging level (DEBUG, INFO, WARN, ERROR)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Dotenv file with PATTERN_ATLAS_* overrides")
	return cmd
}

// loadConfig reads the configuration; an explicit --log-level wins over the file
func loadConfig(path, logLevel string, levelSet bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if levelSet {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	loggingManager := logging.NewLoggingManager()
	loggingManager.SetLogLevel(cfg.Logging.Level)
	logger := loggingManager.GetLogger("main")

	// Set up signal handling for graceful shutdown and manual reload
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	atlas, err := server.NewServer(cfg, loggingManager)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- atlas.Start(ctx)
	}()

	var runErr error
wait:
	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if err := atlas.Reload(ctx); err != nil {
					logger.WithError(err).Error("Manual catalog reload failed")
				}
				continue
			}
			logger.WithContext("signal", sig.String()).
				Info("Received shutdown signal, gracefully shutting down")
			break wait
		case err := <-errChan:
			if err != nil {
				runErr = fmt.Errorf("pattern server: %w", err)
			}
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := atlas.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during shutdown")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
