package config

import "time"

// Default values for configuration fields.
const (
	// Routing defaults
	DefaultRoutingStrategy        = "smart"
	DefaultFallbackEnabled        = true
	DefaultHealthFailureThreshold = 3
	DefaultHealthMinSuccessRate   = 0.5
	DefaultHealthFailureCooldown  = 5 * time.Minute

	// Provider defaults
	DefaultProviderLatency = 100 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsNamespace   = "conductor"
	DefaultMetricsSubsystem   = "router"
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsListenAddr  = "127.0.0.1:9090"
	DefaultReportSchedule     = "@every 30s"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "conductor"
	DefaultTracingTimeout     = 10 * time.Second
)

// DefaultDecisionDurationBuckets are the histogram buckets, in seconds, for
// routing decision latency.
var DefaultDecisionDurationBuckets = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01}

// NewDefaultConfig returns a configuration with every default applied and no
// providers declared.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	applyRoutingDefaults(&cfg.Routing)

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	for name, p := range cfg.Providers {
		if p.Latency == 0 {
			p.Latency = DefaultProviderLatency
		}
		cfg.Providers[name] = p
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyRoutingDefaults(cfg *RoutingConfig) {
	if cfg.Strategy == "" {
		cfg.Strategy = DefaultRoutingStrategy
	}
	if cfg.FallbackEnabled == nil {
		enabled := DefaultFallbackEnabled
		cfg.FallbackEnabled = &enabled
	}
	if cfg.Health.FailureThreshold == 0 {
		cfg.Health.FailureThreshold = DefaultHealthFailureThreshold
	}
	if cfg.Health.MinSuccessRate == 0 {
		cfg.Health.MinSuccessRate = DefaultHealthMinSuccessRate
	}
	if cfg.Health.FailureCooldown == 0 {
		cfg.Health.FailureCooldown = DefaultHealthFailureCooldown
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Enabled == nil {
		enabled := DefaultMetricsEnabled
		cfg.Metrics.Enabled = &enabled
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultMetricsListenAddr
	}
	if cfg.Metrics.ReportSchedule == "" {
		cfg.Metrics.ReportSchedule = DefaultReportSchedule
	}
	if len(cfg.Metrics.DecisionDurationBuckets) == 0 {
		cfg.Metrics.DecisionDurationBuckets = append([]float64(nil), DefaultDecisionDurationBuckets...)
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
}
