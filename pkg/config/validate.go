package config

import (
	"fmt"
	"net"
	"slices"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "routing.strategy").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Strategies lists the accepted values of routing.strategy.
var Strategies = []string{
	"fixed",
	"cost_optimal",
	"fastest_first",
	"highest_reliability",
	"round_robin",
	"capability_based",
	"smart",
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateRouting(&cfg.Routing, cfg.Providers)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateRouting(cfg *RoutingConfig, providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	strategy := strings.ToLower(strings.TrimSpace(cfg.Strategy))
	if strategy == "" {
		errs = append(errs, FieldError{
			Field:   "routing.strategy",
			Message: "strategy is required",
		})
	} else if !slices.Contains(Strategies, strategy) {
		errs = append(errs, FieldError{
			Field:   "routing.strategy",
			Message: fmt.Sprintf("invalid strategy %q: must be one of %s", cfg.Strategy, strings.Join(Strategies, ", ")),
		})
	}

	if strategy == "fixed" {
		if cfg.FixedProvider == "" {
			errs = append(errs, FieldError{
				Field:   "routing.fixed_provider",
				Message: "fixed_provider is required when strategy is 'fixed'",
			})
		} else if len(providers) > 0 {
			if _, ok := providers[cfg.FixedProvider]; !ok {
				errs = append(errs, FieldError{
					Field:   "routing.fixed_provider",
					Message: fmt.Sprintf("provider %q is not declared", cfg.FixedProvider),
				})
			}
		}
	}

	if cfg.MaxCostThreshold != nil && *cfg.MaxCostThreshold < 0 {
		errs = append(errs, FieldError{
			Field:   "routing.max_cost_threshold",
			Message: "max cost threshold cannot be negative",
		})
	}
	if cfg.MaxLatencyThreshold < 0 {
		errs = append(errs, FieldError{
			Field:   "routing.max_latency_threshold",
			Message: "max latency threshold cannot be negative",
		})
	}

	for i, id := range cfg.PreferredProviders {
		if id == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routing.preferred_providers[%d]", i),
				Message: "provider ID cannot be empty",
			})
		}
		if slices.Contains(cfg.BlockedProviders, id) {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routing.preferred_providers[%d]", i),
				Message: fmt.Sprintf("provider %q is both preferred and blocked", id),
			})
		}
	}
	for i, id := range cfg.BlockedProviders {
		if id == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routing.blocked_providers[%d]", i),
				Message: "provider ID cannot be empty",
			})
		}
	}

	models := make([]string, 0, len(cfg.ModelPreferences))
	for model := range cfg.ModelPreferences {
		models = append(models, model)
	}
	sort.Strings(models)
	for _, model := range models {
		if cfg.ModelPreferences[model] == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routing.model_preferences.%s", model),
				Message: "provider ID cannot be empty",
			})
		}
	}

	if cfg.Health.FailureThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "routing.health.failure_threshold",
			Message: "failure threshold must be at least 1",
		})
	}
	if cfg.Health.MinSuccessRate < 0 || cfg.Health.MinSuccessRate >= 1 {
		errs = append(errs, FieldError{
			Field:   "routing.health.min_success_rate",
			Message: "min success rate must be in [0.0, 1.0)",
		})
	}
	if cfg.Health.FailureCooldown < 0 {
		errs = append(errs, FieldError{
			Field:   "routing.health.failure_cooldown",
			Message: "failure cooldown cannot be negative",
		})
	}

	return errs
}

func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := providers[name]
		prefix := fmt.Sprintf("providers.%s", name)

		if strings.TrimSpace(name) == "" {
			errs = append(errs, FieldError{
				Field:   "providers",
				Message: "provider name cannot be empty",
			})
		}
		if p.PromptCostPer1K < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".prompt_cost_per_1k",
				Message: "cost cannot be negative",
			})
		}
		if p.CompletionCostPer1K < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".completion_cost_per_1k",
				Message: "cost cannot be negative",
			})
		}
		if p.LocalAndFree && (p.PromptCostPer1K > 0 || p.CompletionCostPer1K > 0) {
			errs = append(errs, FieldError{
				Field:   prefix + ".local_and_free",
				Message: "a local_and_free provider cannot declare a non-zero cost",
			})
		}
		if p.Latency < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".latency",
				Message: "latency cannot be negative",
			})
		}
		if p.Jitter < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".jitter",
				Message: "jitter cannot be negative",
			})
		}
		if p.FailureRate < 0 || p.FailureRate > 1 {
			errs = append(errs, FieldError{
				Field:   prefix + ".failure_rate",
				Message: "failure rate must be between 0.0 and 1.0",
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.IsEnabled() {
		if cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid listen address: %v", err),
			})
		}
		if cfg.Metrics.ReportSchedule != "" {
			if _, err := cron.ParseStandard(cfg.Metrics.ReportSchedule); err != nil {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.report_schedule",
					Message: fmt.Sprintf("invalid cron schedule: %v", err),
				})
			}
		}
		if !sort.Float64sAreSorted(cfg.Metrics.DecisionDurationBuckets) {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.decision_duration_buckets",
				Message: "buckets must be in increasing order",
			})
		}
	}

	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
