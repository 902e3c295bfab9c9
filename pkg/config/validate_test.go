package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Providers["ollama"] = ProviderConfig{LocalAndFree: true, Latency: time.Millisecond}
	cfg.Providers["openai"] = ProviderConfig{PromptCostPer1K: 0.5, CompletionCostPer1K: 1.5}
	return cfg
}

func TestValidate(t *testing.T) {
	negative := -0.1

	tests := []struct {
		name   string
		modify func(*Config)
		fields []string
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:   "strategy is case insensitive",
			modify: func(c *Config) { c.Routing.Strategy = "Round_Robin" },
		},
		{
			name:   "unknown strategy",
			modify: func(c *Config) { c.Routing.Strategy = "sticky" },
			fields: []string{"routing.strategy"},
		},
		{
			name: "fixed provider must be declared",
			modify: func(c *Config) {
				c.Routing.Strategy = "fixed"
				c.Routing.FixedProvider = "anthropic"
			},
			fields: []string{"routing.fixed_provider"},
		},
		{
			name: "fixed provider declared",
			modify: func(c *Config) {
				c.Routing.Strategy = "fixed"
				c.Routing.FixedProvider = "ollama"
			},
		},
		{
			name: "negative thresholds",
			modify: func(c *Config) {
				c.Routing.MaxCostThreshold = &negative
				c.Routing.MaxLatencyThreshold = -time.Second
			},
			fields: []string{"routing.max_cost_threshold", "routing.max_latency_threshold"},
		},
		{
			name: "preferred and blocked",
			modify: func(c *Config) {
				c.Routing.PreferredProviders = []string{"ollama"}
				c.Routing.BlockedProviders = []string{"ollama", ""}
			},
			fields: []string{"routing.preferred_providers[0]", "routing.blocked_providers[1]"},
		},
		{
			name:   "empty model preference",
			modify: func(c *Config) { c.Routing.ModelPreferences = map[string]string{"llama3": ""} },
			fields: []string{"routing.model_preferences.llama3"},
		},
		{
			name: "bad health policy",
			modify: func(c *Config) {
				c.Routing.Health.FailureThreshold = -1
				c.Routing.Health.MinSuccessRate = 1
				c.Routing.Health.FailureCooldown = -time.Second
			},
			fields: []string{
				"routing.health.failure_threshold",
				"routing.health.min_success_rate",
				"routing.health.failure_cooldown",
			},
		},
		{
			name: "bad provider values",
			modify: func(c *Config) {
				c.Providers["openai"] = ProviderConfig{PromptCostPer1K: -1, FailureRate: 2, Jitter: -time.Millisecond}
			},
			fields: []string{
				"providers.openai.prompt_cost_per_1k",
				"providers.openai.jitter",
				"providers.openai.failure_rate",
			},
		},
		{
			name: "local and free with cost",
			modify: func(c *Config) {
				c.Providers["ollama"] = ProviderConfig{LocalAndFree: true, CompletionCostPer1K: 0.1}
			},
			fields: []string{"providers.ollama.local_and_free"},
		},
		{
			name: "bad telemetry",
			modify: func(c *Config) {
				c.Telemetry.Logging.Level = "trace"
				c.Telemetry.Metrics.Path = "metrics"
				c.Telemetry.Metrics.ReportSchedule = "every thirty seconds"
				c.Telemetry.Tracing.Sampler = "sometimes"
				c.Telemetry.Tracing.SampleRatio = 1.5
			},
			fields: []string{
				"telemetry.logging.level",
				"telemetry.metrics.path",
				"telemetry.metrics.report_schedule",
				"telemetry.tracing.sampler",
				"telemetry.tracing.sample_ratio",
			},
		},
		{
			name: "metrics checks skipped when disabled",
			modify: func(c *Config) {
				disabled := false
				c.Telemetry.Metrics.Enabled = &disabled
				c.Telemetry.Metrics.ListenAddress = "nonsense"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			got := make(map[string]bool)
			for _, fe := range verr.Errors {
				got[fe.Field] = true
			}
			for _, field := range tt.fields {
				if !got[field] {
					t.Errorf("missing error for %s in %v", field, verr.Errors)
				}
			}
			if len(verr.Errors) != len(tt.fields) {
				t.Errorf("got %d errors, want %d: %v", len(verr.Errors), len(tt.fields), verr.Errors)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "routing.strategy", Message: "strategy is required"}}}
	if got := single.Error(); got != "configuration validation failed: routing.strategy: strategy is required" {
		t.Errorf("unexpected single error message: %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}}
	got := multi.Error()
	if !strings.HasPrefix(got, "configuration validation failed with 2 errors:") {
		t.Errorf("unexpected multi error message: %q", got)
	}
	if !strings.Contains(got, "  - a: bad\n") || !strings.Contains(got, "  - b: worse\n") {
		t.Errorf("multi error message missing entries: %q", got)
	}

	if (ValidationError{}).Error() != "configuration validation failed" {
		t.Error("unexpected empty error message")
	}
}
