package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/conductor/pkg/cli"
	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "conductor",
	Short: "Conductor - LLM provider routing engine",
	Long: `Conductor picks which LLM provider should serve a generation request.

It keeps running latency, success rate and cost metrics for every provider,
filters out blocked and unhealthy ones, selects a primary with the configured
strategy and ranks the remaining candidates into a fallback chain.

Strategies: fixed, cost_optimal, fastest_first, highest_reliability,
round_robin, capability_based, smart`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "conductor.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, csv")
}

// loadConfig initializes the process-wide configuration from --config.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", cfgFile, err)
	}
	return config.MustGetConfig(), nil
}

// newLogger builds the command logger. --verbose forces debug level.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	if verbose {
		logCfg.Level = "debug"
	}
	return logging.New(logCfg)
}

// formatter returns the formatter selected by --output.
func formatter() (cli.Formatter, error) {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return cli.NewFormatter(format), nil
}
