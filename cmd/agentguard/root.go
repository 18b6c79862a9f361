package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agentguard-hq/agentguard/pkg/cli"
	"agentguard-hq/agentguard/pkg/config"
	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/server"
	"agentguard-hq/agentguard/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "agentguard",
	Short: "AgentGuard - compliance gateway for AI agents",
	Long: `AgentGuard sits between AI agents and their LLM providers.

Every proxied call is classified for EU AI Act risk tier and personal data,
recorded in a hash-only audit trail and used to grade the agent against
EU AI Act, HIPAA and SOX controls.

Configuration is read from --config (YAML) and AGENTGUARD_* environment
variables. Without --config the built-in defaults apply.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("AGENTGUARD_CONFIG"), "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads and validates the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Initialize(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default. One-shot
// commands log to stderr so their stdout stays machine readable.
func setupLogging(cfg *config.Config, toStderr bool) (*logging.Logger, error) {
	lc := cfg.Telemetry.Logging
	level := lc.Level
	if verbose {
		level = "debug"
	}

	patterns := make([]logging.RedactPattern, 0, len(lc.RedactPatterns))
	for _, p := range lc.RedactPatterns {
		patterns = append(patterns, logging.RedactPattern{Name: p.Name, Pattern: p.Pattern, Replacement: p.Replacement})
	}

	lcfg := logging.Config{
		Level:          level,
		Format:         lc.Format,
		AddSource:      lc.AddSource,
		Redact:         lc.RedactEnabled(),
		RedactPatterns: patterns,
	}
	if toStderr {
		lcfg.Writer = os.Stderr
	}

	logger, err := logging.New(lcfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.Install()
	return logger, nil
}

// withStore loads configuration, opens the audit store and runs fn.
func withStore(ctx context.Context, fn func(cfg *config.Config, store evidence.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := setupLogging(cfg, true); err != nil {
		return err
	}

	store, err := server.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	return fn(cfg, store)
}
