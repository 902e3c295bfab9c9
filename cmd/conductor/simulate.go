package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/conductor/pkg/cli"
	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/dispatch"
	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routerfactory"
	"mercator-hq/conductor/pkg/routing"
)

type simulateOptions struct {
	requests      int
	concurrency   int
	priority      string
	model         string
	strategy      string
	fixedProvider string
	timeout       time.Duration
	quiet         bool
}

var simulateFlags simulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive synthetic traffic through the router",
	Long: `Send synthetic generation requests through the router and the configured
simulated providers, attempting fallbacks on failure, and print the metrics
each provider ends up with.

Provider latency, jitter, failure rate and pricing come from the providers
section of the config file.

Examples:
  # 200 requests, 4 at a time
  conductor simulate --requests 200 --concurrency 4

  # Compare strategies on the same config
  conductor simulate --strategy cost_optimal
  conductor simulate --strategy highest_reliability`,
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

		ctx, stop := cli.SetupSignalHandler(cmd.Context())
		defer stop()

		var progress cli.ProgressReporter
		if !simulateFlags.quiet {
			progress = cli.NewProgressReporter(cmd.ErrOrStderr())
		}
		report, err := runSimulation(ctx, cfg, simulateFlags, logger, progress)
		if err != nil {
			return cli.NewCommandError("simulate", err)
		}
		return f.FormatTo(cmd.OutOrStdout(), report)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVarP(&simulateFlags.requests, "requests", "n", 100, "number of requests")
	simulateCmd.Flags().IntVar(&simulateFlags.concurrency, "concurrency", 4, "concurrent requests")
	simulateCmd.Flags().StringVarP(&simulateFlags.priority, "priority", "p", "normal", "request priority: critical, high, normal, low")
	simulateCmd.Flags().StringVarP(&simulateFlags.model, "model", "m", "", "requested model name")
	simulateCmd.Flags().StringVarP(&simulateFlags.strategy, "strategy", "s", "", "override the configured strategy")
	simulateCmd.Flags().StringVar(&simulateFlags.fixedProvider, "fixed-provider", "", "provider for --strategy fixed")
	simulateCmd.Flags().DurationVar(&simulateFlags.timeout, "timeout", 10*time.Second, "per-request timeout")
	simulateCmd.Flags().BoolVarP(&simulateFlags.quiet, "quiet", "q", false, "hide the progress bar")
}

var simulationPrompts = []string{
	"Say hello.",
	"Summarize the plot of a heist movie in three sentences.",
	"Write a haiku about garbage collection.",
	"Explain the difference between a mutex and a semaphore to a new engineer, with one example of each.",
	"List five prime numbers.",
	"Draft a short, polite email declining a meeting invitation and proposing two alternative times next week.",
}

// simulationReport is the printed result of a simulation run.
type simulationReport struct {
	Strategy    string                   `json:"strategy"`
	Requests    int                      `json:"requests"`
	Succeeded   int64                    `json:"succeeded"`
	Failed      int64                    `json:"failed"`
	Fallbacks   int64                    `json:"fallbacks"`
	TotalCost   float64                  `json:"total_cost"`
	Duration    time.Duration            `json:"duration"`
	Interrupted bool                     `json:"interrupted,omitempty"`
	Stats       *routing.RoutingStats    `json:"stats"`
	Providers   []providerMetricsSummary `json:"providers"`
}

type providerMetricsSummary struct {
	ID       string                  `json:"id"`
	Healthy  bool                    `json:"healthy"`
	Metrics  routing.ProviderMetrics `json:"metrics"`
	Selected int64                   `json:"selected"`
}

func (r *simulationReport) Table() cli.Table {
	t := cli.Table{Headers: []string{"PROVIDER", "HEALTHY", "SELECTED", "REQUESTS", "SUCCESS RATE", "AVG LATENCY", "FAILURES", "STREAK", "COST"}}
	for _, p := range r.Providers {
		m := p.Metrics
		t.Rows = append(t.Rows, []string{
			p.ID,
			strconv.FormatBool(p.Healthy),
			strconv.FormatInt(p.Selected, 10),
			strconv.FormatInt(m.TotalRequests, 10),
			strconv.FormatFloat(m.SuccessRate, 'f', 3, 64),
			fmt.Sprintf("%.1fms", m.AvgLatencyMs),
			strconv.FormatInt(m.Failures, 10),
			strconv.Itoa(m.ConsecutiveFailures),
			strconv.FormatFloat(m.TotalCost, 'f', 6, 64),
		})
	}
	t.Rows = append(t.Rows, []string{
		"total",
		"",
		strconv.Itoa(r.Requests),
		strconv.FormatInt(r.Succeeded+r.Failed, 10),
		fmt.Sprintf("%d failed", r.Failed),
		r.Duration.Round(time.Millisecond).String(),
		fmt.Sprintf("%d fallbacks", r.Fallbacks),
		"",
		strconv.FormatFloat(r.TotalCost, 'f', 6, 64),
	})
	return t
}

// runSimulation dispatches opts.requests synthetic requests across at most
// opts.concurrency workers. A nil progress reporter is allowed. Cancelling
// ctx stops issuing new requests and returns the partial report.
func runSimulation(ctx context.Context, cfg *config.Config, opts simulateOptions, logger *slog.Logger, progress cli.ProgressReporter) (*simulationReport, error) {
	if opts.requests < 1 {
		return nil, fmt.Errorf("requests must be at least 1, got %d", opts.requests)
	}
	if opts.concurrency < 1 {
		opts.concurrency = 1
	}
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
	if len(available) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	dispatcher := dispatch.New(router, router.Registry().Get, dispatch.WithLogger(logger))

	var succeeded, failed, fallbacks atomic.Int64
	var (
		costMu    sync.Mutex
		totalCost float64
	)

	if progress != nil {
		progress.Start(int64(opts.requests))
	}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i := 0; i < opts.requests; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(gctx, opts.timeout)
			defer cancel()

			req := &providers.GenerationRequest{
				Prompt: simulationPrompts[i%len(simulationPrompts)],
				Model:  opts.model,
			}
			res, err := dispatcher.Generate(reqCtx, req, available, priority)
			switch {
			case err == nil:
				succeeded.Add(1)
				costMu.Lock()
				totalCost += res.Cost
				costMu.Unlock()
				if len(res.Attempts) > 1 {
					fallbacks.Add(1)
				}
			case errors.Is(err, context.Canceled) && ctx.Err() != nil:
				return nil
			default:
				failed.Add(1)
				logger.Debug("simulated request failed", "index", i, "error", err)
			}
			if progress != nil {
				progress.Increment(err != nil)
			}
			return nil
		})
	}
	_ = g.Wait()
	if progress != nil {
		progress.Finish()
	}

	report := &simulationReport{
		Strategy:    router.GetStrategy(),
		Requests:    opts.requests,
		Succeeded:   succeeded.Load(),
		Failed:      failed.Load(),
		Fallbacks:   fallbacks.Load(),
		TotalCost:   totalCost,
		Duration:    time.Since(start),
		Stats:       router.GetStats(),
		Interrupted: ctx.Err() != nil,
	}
	snapshot := router.Snapshot()
	for _, id := range available {
		report.Providers = append(report.Providers, providerMetricsSummary{
			ID:       string(id),
			Healthy:  router.IsHealthy(id),
			Metrics:  snapshot[id],
			Selected: report.Stats.RequestsPerProvider[string(id)],
		})
	}

	logger.Info("simulation finished",
		"strategy", report.Strategy,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"fallbacks", report.Fallbacks,
		"duration", report.Duration,
	)
	return report, nil
}
