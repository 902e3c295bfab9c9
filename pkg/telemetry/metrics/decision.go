package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/conductor/pkg/config"
)

// DecisionMetrics tracks routing decisions.
//
// Metrics:
//   - conductor_router_decisions_total: decisions by strategy, priority and primary provider
//   - conductor_router_decision_duration_seconds: time spent deciding
//   - conductor_router_fallback_chain_length: number of fallbacks per decision
//   - conductor_router_filtered_providers_total: providers removed before selection
//   - conductor_router_errors_total: routing failures by strategy and kind
type DecisionMetrics struct {
	decisions *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	fallbacks *prometheus.HistogramVec
	filtered  *prometheus.CounterVec
	errors    *prometheus.CounterVec
}

// NewDecisionMetrics creates and registers decision metrics with the provided registry.
func NewDecisionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decisions_total",
				Help:      "Total routing decisions by strategy, priority and primary provider",
			},
			[]string{"strategy", "priority", "primary"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_duration_seconds",
				Help:      "Time spent making a routing decision in seconds",
				Buckets:   cfg.DecisionDurationBuckets,
			},
			[]string{"strategy"},
		),

		fallbacks: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fallback_chain_length",
				Help:      "Number of fallback providers attached to each decision",
				Buckets:   []float64{0, 1, 2, 3, 5, 8},
			},
			[]string{"strategy"},
		),

		filtered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "filtered_providers_total",
				Help:      "Total providers removed by the block list or health gate before selection",
			},
			[]string{"strategy"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "errors_total",
				Help:      "Total routing failures by strategy and kind",
			},
			[]string{"strategy", "kind"},
		),
	}

	registry.MustRegister(
		dm.decisions,
		dm.duration,
		dm.fallbacks,
		dm.filtered,
		dm.errors,
	)

	return dm
}

// RecordDecision records a successful decision.
func (dm *DecisionMetrics) RecordDecision(strategy, priority, primary string, fallbacks, filtered int, elapsed time.Duration) {
	dm.decisions.WithLabelValues(strategy, priority, primary).Inc()
	dm.duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	dm.fallbacks.WithLabelValues(strategy).Observe(float64(fallbacks))
	if filtered > 0 {
		dm.filtered.WithLabelValues(strategy).Add(float64(filtered))
	}
}

// RecordError records a routing failure.
func (dm *DecisionMetrics) RecordError(strategy, kind string) {
	dm.errors.WithLabelValues(strategy, kind).Inc()
}
