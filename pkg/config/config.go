package config

import "time"

// Config is the root configuration structure for Conductor.
// It contains the routing engine settings, the simulated provider backends,
// and telemetry.
type Config struct {
	// Routing contains configuration for the routing engine including
	// strategy selection, filtering lists, thresholds, and the health policy.
	Routing RoutingConfig `yaml:"routing"`

	// Providers declares the provider backends known to the router.
	// Keys are provider IDs (e.g., "ollama", "openai").
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RoutingConfig contains configuration for the routing engine.
type RoutingConfig struct {
	// Strategy is the provider selection strategy.
	// Options: "fixed", "cost_optimal", "fastest_first", "highest_reliability",
	// "round_robin", "capability_based", "smart"
	// Default: "smart"
	Strategy string `yaml:"strategy"`

	// FixedProvider is the provider used by the "fixed" strategy.
	// Required when Strategy is "fixed", ignored otherwise.
	FixedProvider string `yaml:"fixed_provider"`

	// FallbackEnabled appends a ranked fallback chain to every decision.
	// Default: true
	FallbackEnabled *bool `yaml:"fallback_enabled"`

	// MaxCostThreshold is the per-request cost above which the smart
	// strategy penalizes a provider. Unset means no threshold.
	MaxCostThreshold *float64 `yaml:"max_cost_threshold"`

	// MaxLatencyThreshold penalizes providers whose average latency exceeds it.
	// Zero disables the penalty.
	MaxLatencyThreshold time.Duration `yaml:"max_latency_threshold"`

	// PreferredProviders receive a scoring bonus and are consulted first by
	// the capability-based strategy.
	PreferredProviders []string `yaml:"preferred_providers"`

	// BlockedProviders are never selected.
	BlockedProviders []string `yaml:"blocked_providers"`

	// ModelPreferences maps a model name to the provider that should serve it.
	ModelPreferences map[string]string `yaml:"model_preferences"`

	// Health controls when a provider is considered healthy.
	Health HealthConfig `yaml:"health"`
}

// IsFallbackEnabled returns the effective fallback setting.
func (c *RoutingConfig) IsFallbackEnabled() bool {
	return c.FallbackEnabled == nil || *c.FallbackEnabled
}

// HealthConfig contains the provider health gate thresholds.
type HealthConfig struct {
	// FailureThreshold is the number of consecutive failures that marks a
	// provider unhealthy.
	// Default: 3
	FailureThreshold int `yaml:"failure_threshold"`

	// MinSuccessRate is the success rate a provider must stay above.
	// Default: 0.5
	MinSuccessRate float64 `yaml:"min_success_rate"`

	// FailureCooldown is how long after its last failure a provider with an
	// active failure streak stays excluded.
	// Default: 5m
	FailureCooldown time.Duration `yaml:"failure_cooldown"`
}

// ProviderConfig declares a simulated provider backend.
type ProviderConfig struct {
	// LocalAndFree marks a provider that runs locally at no cost. Such
	// providers receive priority bonuses when scoring.
	LocalAndFree bool `yaml:"local_and_free"`

	// Model is the model name reported in responses.
	Model string `yaml:"model"`

	// PromptCostPer1K is the price of 1000 prompt tokens.
	PromptCostPer1K float64 `yaml:"prompt_cost_per_1k"`

	// CompletionCostPer1K is the price of 1000 completion tokens.
	CompletionCostPer1K float64 `yaml:"completion_cost_per_1k"`

	// Latency is the mean simulated response latency.
	// Default: 100ms
	Latency time.Duration `yaml:"latency"`

	// Jitter is the maximum random deviation added to Latency.
	Jitter time.Duration `yaml:"jitter"`

	// FailureRate is the probability (0.0 to 1.0) that a call fails.
	FailureRate float64 `yaml:"failure_rate"`

	// Seed seeds the simulation's random source. Zero picks a seed derived
	// from the provider ID so runs are reproducible.
	Seed int64 `yaml:"seed"`

	// Features declares the capabilities the provider supports.
	Features FeaturesConfig `yaml:"features"`
}

// FeaturesConfig declares provider capabilities.
type FeaturesConfig struct {
	Streaming       bool `yaml:"streaming"`
	SystemPrompt    bool `yaml:"system_prompt"`
	Vision          bool `yaml:"vision"`
	FunctionCalling bool `yaml:"function_calling"`
	JSONMode        bool `yaml:"json_mode"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "conductor"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "router"
	Subsystem string `yaml:"subsystem"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// ListenAddress is where "conductor serve" exposes metrics.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// ReportSchedule is a cron expression for periodic metrics snapshots
	// written to the log. Empty disables reporting.
	// Default: "@every 30s"
	ReportSchedule string `yaml:"report_schedule"`

	// DecisionDurationBuckets defines histogram buckets for routing decision
	// duration (seconds).
	// Default: [0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01]
	DecisionDurationBuckets []float64 `yaml:"decision_duration_buckets"`
}

// IsEnabled returns the effective metrics setting.
func (c *MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "conductor"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
