// Package metrics exports routing activity as Prometheus metrics.
//
// # Overview
//
// The Collector implements routing.Observer. Attach it to a router and every
// decision, routing error, recorded outcome and health transition updates a
// metric:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	router, err := routing.NewRouter(rcfg, strategies.New, routing.WithObserver(collector))
//
// Dispatch errors are counted separately with RecordProviderError, because
// the router only sees success or failure.
//
// # Metric Names
//
// All names are prefixed with <namespace>_<subsystem>_, which defaults to
// conductor_router_:
//
//   - decisions_total{strategy,priority,primary}
//   - decision_duration_seconds{strategy}
//   - fallback_chain_length{strategy}
//   - filtered_providers_total{strategy}
//   - errors_total{strategy,kind}
//   - provider_healthy{provider}
//   - provider_avg_latency_ms{provider}
//   - provider_success_rate{provider}
//   - provider_consecutive_failures{provider}
//   - provider_outcomes_total{provider,outcome}
//   - provider_errors_total{provider,error_type}
//   - provider_tokens_total{provider}
//   - provider_cost_total{provider}
//
// # Cardinality
//
// Provider IDs come from configuration, but the collector still caps the
// number of distinct provider labels at DefaultMaxProviders. Outcomes for
// providers beyond the cap are counted under OverflowLabel and their gauges
// are not exported.
//
// # Reporter
//
// Gauges are updated on every outcome, so they go stale for providers that
// stop receiving traffic. The Reporter refreshes them from a full snapshot
// on a cron schedule (telemetry.metrics.report_schedule) and logs a routing
// summary at the same time.
//
// # HTTP Endpoint
//
// Handler serves the registry in the Prometheus text or OpenMetrics format.
// NewServeMux mounts it at the configured path.
package metrics
