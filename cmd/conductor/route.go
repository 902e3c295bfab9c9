package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/conductor/pkg/cli"
	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routerfactory"
	"mercator-hq/conductor/pkg/routing"
)

type routeOptions struct {
	model         string
	system        string
	maxTokens     int
	priority      string
	strategy      string
	fixedProvider string
	providers     []string
}

var routeFlags routeOptions

var routeCmd = &cobra.Command{
	Use:   "route [prompt]",
	Short: "Print the provider order for a prompt",
	Long: `Run one routing decision against the configured providers and print the
ordered attempt list: the primary first, then the fallback chain.

No provider is called. Every provider starts with optimistic metrics, so the
result reflects configuration (cost, preferences, block list, priority).

Examples:
  # Route with the configured strategy
  conductor route "Translate this sentence into French"

  # Route a critical request with the smart strategy
  conductor route --priority critical --strategy smart "Page the on-call engineer"

  # Only consider two providers and print JSON
  conductor route --providers ollama,openai -o json "hello"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := formatter()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		opts := routeFlags
		report, err := routePrompt(cmd.Context(), cfg, strings.Join(args, " "), opts, logger)
		if err != nil {
			return cli.NewCommandError("route", err)
		}
		return f.FormatTo(cmd.OutOrStdout(), report)
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)

	routeCmd.Flags().StringVarP(&routeFlags.model, "model", "m", "", "requested model name")
	routeCmd.Flags().StringVar(&routeFlags.system, "system", "", "system prompt")
	routeCmd.Flags().IntVar(&routeFlags.maxTokens, "max-tokens", 0, "completion token cap")
	routeCmd.Flags().StringVarP(&routeFlags.priority, "priority", "p", "normal", "request priority: critical, high, normal, low")
	routeCmd.Flags().StringVarP(&routeFlags.strategy, "strategy", "s", "", "override the configured strategy")
	routeCmd.Flags().StringVar(&routeFlags.fixedProvider, "fixed-provider", "", "provider for --strategy fixed")
	routeCmd.Flags().StringSliceVar(&routeFlags.providers, "providers", nil, "available providers (default: all configured)")
}

// routeReport is the printed result of one routing decision.
type routeReport struct {
	RequestID string       `json:"request_id"`
	Strategy  string       `json:"strategy"`
	Priority  string       `json:"priority"`
	Order     []routeEntry `json:"order"`
	Filtered  []string     `json:"filtered,omitempty"`
}

type routeEntry struct {
	Position int     `json:"position"`
	Provider string  `json:"provider"`
	Role     string  `json:"role"`
	EstCost  float64 `json:"estimated_cost"`
}

func (r *routeReport) Table() cli.Table {
	t := cli.Table{Headers: []string{"#", "PROVIDER", "ROLE", "EST. COST"}}
	for _, e := range r.Order {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(e.Position),
			e.Provider,
			e.Role,
			strconv.FormatFloat(e.EstCost, 'f', 6, 64),
		})
	}
	return t
}

// withStrategy returns cfg with the routing strategy replaced. cfg itself
// is not modified.
func withStrategy(cfg *config.Config, strategy, fixedProvider string) *config.Config {
	if strategy == "" {
		return cfg
	}
	out := *cfg
	out.Routing.Strategy = strategy
	if fixedProvider != "" {
		out.Routing.FixedProvider = fixedProvider
	}
	return &out
}

// routePrompt builds a router from cfg and makes one decision for prompt.
func routePrompt(ctx context.Context, cfg *config.Config, prompt string, opts routeOptions, logger *slog.Logger) (*routeReport, error) {
	priority, err := routing.ParsePriority(opts.priority)
	if err != nil {
		return nil, err
	}

	router, err := routerfactory.New(withStrategy(cfg, opts.strategy, opts.fixedProvider), routing.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer router.Close()

	available := router.Registry().IDs()
	if len(opts.providers) > 0 {
		available = make([]providers.ProviderID, len(opts.providers))
		for i, id := range opts.providers {
			available[i] = providers.ProviderID(strings.TrimSpace(id))
		}
	}

	req := &providers.GenerationRequest{
		Prompt:       prompt,
		Model:        opts.model,
		SystemPrompt: opts.system,
		MaxTokens:    opts.maxTokens,
	}
	result, err := router.RouteRequest(ctx, req, available, priority)
	if err != nil {
		return nil, err
	}

	est := routing.EstimateTokens(req)
	report := &routeReport{
		RequestID: result.RequestID,
		Strategy:  result.Strategy,
		Priority:  result.Priority.String(),
	}
	for i, id := range result.Providers {
		entry := routeEntry{Position: i + 1, Provider: string(id), Role: "fallback"}
		if i == 0 {
			entry.Role = "primary"
		}
		if p, ok := router.Registry().Get(id); ok {
			m, _ := router.Metrics(id)
			if cost, known := routing.EstimateProviderCost(p, &m, est); known {
				entry.EstCost = cost
			}
		}
		report.Order = append(report.Order, entry)
	}
	for _, id := range result.Filtered {
		report.Filtered = append(report.Filtered, string(id))
	}

	logger.Debug("route computed",
		"request_id", report.RequestID,
		"strategy", report.Strategy,
		"order", fmt.Sprint(result.Providers),
	)
	return report, nil
}
