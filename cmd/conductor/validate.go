package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/conductor/pkg/cli"
	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/routerfactory"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file with environment overrides applied, validate
every field, and build the router it describes.

Validation errors are reported together and exit with status 2.

Examples:
  # Validate the default config file
  conductor validate

  # Validate a specific file and print the provider table as JSON
  conductor validate --config prod.yaml --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := formatter()
		if err != nil {
			return err
		}
		summary, err := validateConfig(cfgFile)
		if err != nil {
			return err
		}
		return f.FormatTo(cmd.OutOrStdout(), summary)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// configSummary describes a valid configuration.
type configSummary struct {
	Path            string            `json:"path"`
	Strategy        string            `json:"strategy"`
	FallbackEnabled bool              `json:"fallback_enabled"`
	Providers       []providerSummary `json:"providers"`
}

type providerSummary struct {
	ID                  string  `json:"id"`
	LocalAndFree        bool    `json:"local_and_free"`
	PromptCostPer1K     float64 `json:"prompt_cost_per_1k"`
	CompletionCostPer1K float64 `json:"completion_cost_per_1k"`
	Latency             string  `json:"latency"`
	FailureRate         float64 `json:"failure_rate"`
	Features            string  `json:"features"`
}

func (s *configSummary) Table() cli.Table {
	t := cli.Table{Headers: []string{"PROVIDER", "LOCAL", "PROMPT/1K", "COMPLETION/1K", "LATENCY", "FAILURE RATE", "FEATURES"}}
	for _, p := range s.Providers {
		t.Rows = append(t.Rows, []string{
			p.ID,
			strconv.FormatBool(p.LocalAndFree),
			strconv.FormatFloat(p.PromptCostPer1K, 'f', -1, 64),
			strconv.FormatFloat(p.CompletionCostPer1K, 'f', -1, 64),
			p.Latency,
			strconv.FormatFloat(p.FailureRate, 'f', -1, 64),
			p.Features,
		})
	}
	return t
}

// validateConfig loads path and checks that a router can be built from it.
func validateConfig(path string) (*configSummary, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}

	router, err := routerfactory.New(cfg)
	if err != nil {
		return nil, err
	}
	defer router.Close()

	summary := &configSummary{
		Path:            path,
		Strategy:        router.GetStrategy(),
		FallbackEnabled: cfg.Routing.IsFallbackEnabled(),
	}
	for _, id := range router.Registry().IDs() {
		p, _ := router.Registry().Get(id)
		pc := cfg.Providers[string(id)]
		summary.Providers = append(summary.Providers, providerSummary{
			ID:                  string(id),
			LocalAndFree:        pc.LocalAndFree,
			PromptCostPer1K:     pc.PromptCostPer1K,
			CompletionCostPer1K: pc.CompletionCostPer1K,
			Latency:             pc.Latency.String(),
			FailureRate:         pc.FailureRate,
			Features:            p.Features().String(),
		})
	}
	return summary, nil
}
