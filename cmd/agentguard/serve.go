package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"agentguard-hq/agentguard/pkg/cli"
	"agentguard-hq/agentguard/pkg/config"
	"agentguard-hq/agentguard/pkg/server"
	"agentguard-hq/agentguard/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the AgentGuard gateway",
	Long: `Start the recording proxy, the management API and the background
compliance and retention schedulers.

Examples:
  # Start with built-in defaults (SQLite in ./data)
  agentguard serve

  # Start with a config file
  agentguard serve --config /etc/agentguard/config.yaml

  # Override listen address
  agentguard serve --listen 0.0.0.0:9000

  # Validate config without starting
  agentguard serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}

	logger, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}

	if serveFlags.dryRun {
		cli.Success("Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	tp, err := tracing.New(ctx, cfg.Telemetry.Tracing, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	if path := config.Path(); path != "" {
		watcher, err := config.NewWatcher(path, config.DefaultDebounce, func(next *config.Config) {
			// Only the log level is applied live; other changes need a restart.
			if err := logger.SetLevel(next.Telemetry.Logging.Level); err != nil {
				slog.Warn("ignoring reloaded log level", "error", err)
				return
			}
			slog.Info("configuration reloaded", "log_level", next.Telemetry.Logging.Level)
		})
		if err != nil {
			slog.Warn("config hot reload disabled", "error", err)
		} else {
			go func() {
				if err := watcher.Run(ctx); err != nil {
					slog.Warn("config watcher stopped", "error", err)
				}
			}()
		}
	}

	srv, err := server.New(ctx, cfg, server.BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	return srv.Start(ctx)
}
