package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
)

// Source is the part of routing.Router the reporter reads from.
type Source interface {
	Snapshot() map[providers.ProviderID]routing.ProviderMetrics
	IsHealthy(id providers.ProviderID) bool
	GetStats() *routing.RoutingStats
}

// Reporter periodically refreshes the provider gauges from a full metrics
// snapshot and logs a routing summary. It runs on a cron schedule such as
// "@every 30s" or "*/5 * * * *".
type Reporter struct {
	source    Source
	collector *Collector
	schedule  string
	cron      *cron.Cron
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewReporter creates a reporter. collector may be nil, in which case only
// the log summary is produced.
func NewReporter(source Source, collector *Collector, schedule string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		source:    source,
		collector: collector,
		schedule:  schedule,
		cron:      cron.New(),
		logger:    logger.With("component", "metrics.reporter"),
	}
}

// Start schedules the report and returns immediately. The reporter stops
// when ctx is cancelled or Stop is called. An empty schedule disables the
// reporter without error.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("reporter already running")
	}
	if r.schedule == "" {
		r.logger.Info("report schedule not configured, skipping reporter")
		return nil
	}

	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.schedule, err)
	}
	if _, err := r.cron.AddFunc(r.schedule, r.Report); err != nil {
		return fmt.Errorf("failed to schedule report: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("metrics reporter started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Report runs one reporting cycle.
func (r *Reporter) Report() {
	snapshot := r.source.Snapshot()
	if r.collector != nil {
		r.collector.ObserveSnapshot(snapshot, r.source.IsHealthy)
	}

	ids := make([]providers.ProviderID, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	healthy := 0
	for _, id := range ids {
		m := snapshot[id]
		ok := r.source.IsHealthy(id)
		if ok {
			healthy++
		}
		r.logger.Debug("provider metrics",
			"provider", string(id),
			"healthy", ok,
			"avg_latency_ms", m.AvgLatencyMs,
			"success_rate", m.SuccessRate,
			"consecutive_failures", m.ConsecutiveFailures,
			"total_tokens", m.TotalTokens,
			"total_cost", m.TotalCost,
		)
	}

	stats := r.source.GetStats()
	r.logger.Info("routing summary",
		"providers", len(ids),
		"healthy_providers", healthy,
		"total_requests", stats.TotalRequests,
		"fallback_chains", stats.FallbackChains,
		"no_healthy_providers", stats.NoHealthyProviders,
		"errors", stats.Errors,
	)
}

// Stop stops the reporter and waits for a running report to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		<-r.cron.Stop().Done()
		r.running = false
		r.logger.Info("metrics reporter stopped")
	}
}

// IsRunning reports whether the reporter is scheduled.
func (r *Reporter) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun returns the next scheduled report time, or nil if nothing is
// scheduled.
func (r *Reporter) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
