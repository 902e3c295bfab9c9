package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"ollama": {},
			"slow":   {Latency: time.Second},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Routing.Strategy != DefaultRoutingStrategy {
		t.Errorf("Strategy = %q, want %q", cfg.Routing.Strategy, DefaultRoutingStrategy)
	}
	if !cfg.Routing.IsFallbackEnabled() {
		t.Error("fallback should default to enabled")
	}
	if cfg.Routing.MaxCostThreshold != nil {
		t.Error("max cost threshold should stay unset")
	}
	if cfg.Routing.Health != (HealthConfig{
		FailureThreshold: DefaultHealthFailureThreshold,
		MinSuccessRate:   DefaultHealthMinSuccessRate,
		FailureCooldown:  DefaultHealthFailureCooldown,
	}) {
		t.Errorf("unexpected health defaults: %+v", cfg.Routing.Health)
	}
	if cfg.Providers["ollama"].Latency != DefaultProviderLatency {
		t.Errorf("ollama latency = %v, want %v", cfg.Providers["ollama"].Latency, DefaultProviderLatency)
	}
	if cfg.Providers["slow"].Latency != time.Second {
		t.Errorf("explicit latency overwritten: %v", cfg.Providers["slow"].Latency)
	}

	m := cfg.Telemetry.Metrics
	if !m.IsEnabled() || m.Namespace != DefaultMetricsNamespace || m.Subsystem != DefaultMetricsSubsystem ||
		m.Path != DefaultPrometheusPath || m.ListenAddress != DefaultMetricsListenAddr ||
		m.ReportSchedule != DefaultReportSchedule || len(m.DecisionDurationBuckets) != len(DefaultDecisionDurationBuckets) {
		t.Errorf("unexpected metrics defaults: %+v", m)
	}

	tr := cfg.Telemetry.Tracing
	if tr.Enabled || tr.Sampler != DefaultTracingSampler || tr.SampleRatio != DefaultTracingSampleRatio ||
		tr.Endpoint != DefaultTracingEndpoint || tr.ServiceName != DefaultTracingServiceName {
		t.Errorf("unexpected tracing defaults: %+v", tr)
	}
}

func TestApplyDefaults_KeepsExplicitFalse(t *testing.T) {
	off := false
	cfg := &Config{}
	cfg.Routing.FallbackEnabled = &off
	cfg.Telemetry.Metrics.Enabled = &off

	ApplyDefaults(cfg)

	if cfg.Routing.IsFallbackEnabled() {
		t.Error("explicit fallback_enabled: false was overwritten")
	}
	if cfg.Telemetry.Metrics.IsEnabled() {
		t.Error("explicit metrics enabled: false was overwritten")
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := NewDefaultConfig()
	before := *cfg.Routing.FallbackEnabled
	buckets := len(cfg.Telemetry.Metrics.DecisionDurationBuckets)

	ApplyDefaults(cfg)

	if *cfg.Routing.FallbackEnabled != before {
		t.Error("second ApplyDefaults changed fallback")
	}
	if len(cfg.Telemetry.Metrics.DecisionDurationBuckets) != buckets {
		t.Error("second ApplyDefaults changed buckets")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}
