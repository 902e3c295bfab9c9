package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "CONDUCTOR_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration, applies defaults and validates the result.
// Unknown fields are rejected so typos surface as errors.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CONDUCTOR_SECTION_FIELD (e.g., CONDUCTOR_ROUTING_STRATEGY).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Routing overrides
	if val := getenv("ROUTING_STRATEGY"); val != "" {
		cfg.Routing.Strategy = val
	}
	if val := getenv("ROUTING_FIXED_PROVIDER"); val != "" {
		cfg.Routing.FixedProvider = val
	}
	if val := getenv("ROUTING_FALLBACK_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Routing.FallbackEnabled = &b
		}
	}
	if val := getenv("ROUTING_MAX_COST_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Routing.MaxCostThreshold = &f
		}
	}
	if val := getenv("ROUTING_MAX_LATENCY_THRESHOLD"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Routing.MaxLatencyThreshold = d
		}
	}
	if val := getenv("ROUTING_PREFERRED_PROVIDERS"); val != "" {
		cfg.Routing.PreferredProviders = splitList(val)
	}
	if val := getenv("ROUTING_BLOCKED_PROVIDERS"); val != "" {
		cfg.Routing.BlockedProviders = splitList(val)
	}
	if val := getenv("ROUTING_HEALTH_FAILURE_THRESHOLD"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Routing.Health.FailureThreshold = i
		}
	}
	if val := getenv("ROUTING_HEALTH_MIN_SUCCESS_RATE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Routing.Health.MinSuccessRate = f
		}
	}
	if val := getenv("ROUTING_HEALTH_FAILURE_COOLDOWN"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Routing.Health.FailureCooldown = d
		}
	}

	// Provider overrides for every declared provider
	for name := range cfg.Providers {
		applyProviderEnvOverrides(cfg, name)
	}

	// Telemetry overrides
	if val := getenv("TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := getenv("TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := getenv("TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	if val := getenv("TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := getenv("TELEMETRY_METRICS_REPORT_SCHEDULE"); val != "" {
		cfg.Telemetry.Metrics.ReportSchedule = val
	}
	if val := getenv("TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := getenv("TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := getenv("TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// applyProviderEnvOverrides applies overrides of the form
// CONDUCTOR_PROVIDERS_<NAME>_<FIELD> to the named provider.
func applyProviderEnvOverrides(cfg *Config, name string) {
	p := cfg.Providers[name]
	prefix := "PROVIDERS_" + envName(name) + "_"

	if val := getenv(prefix + "LATENCY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			p.Latency = d
		}
	}
	if val := getenv(prefix + "FAILURE_RATE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			p.FailureRate = f
		}
	}
	if val := getenv(prefix + "PROMPT_COST_PER_1K"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			p.PromptCostPer1K = f
		}
	}
	if val := getenv(prefix + "COMPLETION_COST_PER_1K"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			p.CompletionCostPer1K = f
		}
	}
	if val := getenv(prefix + "MODEL"); val != "" {
		p.Model = val
	}

	cfg.Providers[name] = p
}

func getenv(key string) string {
	return os.Getenv(EnvPrefix + key)
}

// envName upper-cases a provider name and replaces characters that are not
// valid in environment variable names with underscores.
func envName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
