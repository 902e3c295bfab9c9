package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/routing"
)

// ProviderMetrics mirrors the router's per-provider metrics records.
//
// Metrics:
//   - conductor_router_provider_healthy: health gate result (1=healthy, 0=unhealthy)
//   - conductor_router_provider_avg_latency_ms: EMA latency in milliseconds
//   - conductor_router_provider_success_rate: EMA success rate
//   - conductor_router_provider_consecutive_failures: current failure streak
//   - conductor_router_provider_outcomes_total: recorded outcomes by result
//   - conductor_router_provider_errors_total: dispatch errors by type
//   - conductor_router_provider_tokens_total: tokens consumed
//   - conductor_router_provider_cost_total: accumulated cost
type ProviderMetrics struct {
	health              *prometheus.GaugeVec
	avgLatency          *prometheus.GaugeVec
	successRate         *prometheus.GaugeVec
	consecutiveFailures *prometheus.GaugeVec
	outcomes            *prometheus.CounterVec
	errors              *prometheus.CounterVec
	tokens              *prometheus.GaugeVec
	cost                *prometheus.GaugeVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      name,
				Help:      help,
			},
			[]string{"provider"},
		)
	}

	pm := &ProviderMetrics{
		health:              gauge("provider_healthy", "Provider health gate result (1=healthy, 0=unhealthy)"),
		avgLatency:          gauge("provider_avg_latency_ms", "Exponential moving average of provider latency in milliseconds"),
		successRate:         gauge("provider_success_rate", "Exponential moving average of provider success rate"),
		consecutiveFailures: gauge("provider_consecutive_failures", "Current consecutive failure streak"),
		tokens:              gauge("provider_tokens_total", "Total tokens recorded for the provider"),
		cost:                gauge("provider_cost_total", "Total cost recorded for the provider"),

		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_outcomes_total",
				Help:      "Total recorded provider outcomes by result",
			},
			[]string{"provider", "outcome"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Total provider errors seen while dispatching, by type",
			},
			[]string{"provider", "error_type"},
		),
	}

	registry.MustRegister(
		pm.health,
		pm.avgLatency,
		pm.successRate,
		pm.consecutiveFailures,
		pm.outcomes,
		pm.errors,
		pm.tokens,
		pm.cost,
	)

	return pm
}

// Observe copies a metrics record into the gauges.
func (pm *ProviderMetrics) Observe(provider string, m routing.ProviderMetrics) {
	pm.avgLatency.WithLabelValues(provider).Set(m.AvgLatencyMs)
	pm.successRate.WithLabelValues(provider).Set(m.SuccessRate)
	pm.consecutiveFailures.WithLabelValues(provider).Set(float64(m.ConsecutiveFailures))
	pm.tokens.WithLabelValues(provider).Set(float64(m.TotalTokens))
	pm.cost.WithLabelValues(provider).Set(m.TotalCost)
}

// RecordOutcome counts a recorded success or failure.
func (pm *ProviderMetrics) RecordOutcome(provider string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	pm.outcomes.WithLabelValues(provider, outcome).Inc()
}

// UpdateHealth updates the health status of a provider.
// The health metric is a gauge where 1=healthy, 0=unhealthy.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordError records an error from a provider.
//
// Common error types:
//   - "rate_limit": Provider rate limit exceeded
//   - "timeout": Request timeout
//   - "auth": Authentication/authorization error
//   - "unavailable": Provider unreachable
//   - "validation": The provider rejected the request
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}

// Delete drops every series of a provider.
func (pm *ProviderMetrics) Delete(provider string) {
	labels := prometheus.Labels{"provider": provider}
	pm.health.DeletePartialMatch(labels)
	pm.avgLatency.DeletePartialMatch(labels)
	pm.successRate.DeletePartialMatch(labels)
	pm.consecutiveFailures.DeletePartialMatch(labels)
	pm.outcomes.DeletePartialMatch(labels)
	pm.errors.DeletePartialMatch(labels)
	pm.tokens.DeletePartialMatch(labels)
	pm.cost.DeletePartialMatch(labels)
}
