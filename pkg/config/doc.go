// Package config provides configuration management for Conductor.
//
// Configuration is loaded from a YAML file, completed with defaults,
// optionally overridden from the environment, and validated before use.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("conductor.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("conductor.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CONDUCTOR_SECTION_FIELD:
//
//   - CONDUCTOR_ROUTING_STRATEGY overrides routing.strategy
//   - CONDUCTOR_ROUTING_BLOCKED_PROVIDERS overrides routing.blocked_providers (comma separated)
//   - CONDUCTOR_PROVIDERS_OLLAMA_FAILURE_RATE overrides providers.ollama.failure_rate
//   - CONDUCTOR_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Provider overrides apply only to providers declared in the file.
//
// # Validation
//
// Validation collects every problem into a ValidationError:
//
//	configuration validation failed with 2 errors:
//	  - routing.strategy: invalid strategy "sticky": must be one of fixed, ...
//	  - providers.ollama.failure_rate: failure rate must be between 0.0 and 1.0
//
// # Hot Reload
//
// Watcher reloads the file when it changes and passes each valid
// configuration to a callback. "conductor serve" uses it to push new routing
// settings into a running router.
//
// # Example Configuration
//
//	routing:
//	  strategy: smart
//	  max_cost_threshold: 0.10
//	  preferred_providers: [ollama]
//	  model_preferences:
//	    llama3: ollama
//
//	providers:
//	  ollama:
//	    local_and_free: true
//	    latency: 200ms
//	    features: {streaming: true, system_prompt: true}
//	  openai:
//	    prompt_cost_per_1k: 0.5
//	    completion_cost_per_1k: 1.5
//	    latency: 600ms
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
package config
