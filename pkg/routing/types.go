package routing

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"mercator-hq/conductor/pkg/providers"
)

// Priority is the caller-declared urgency of a request. It shifts the
// cost/reliability/speed balance of the smart strategy.
type Priority int

// Priority values. The zero value is PriorityNormal.
const (
	PriorityNormal Priority = iota
	PriorityCritical
	PriorityHigh
	PriorityLow
)

// String returns the lower-case priority name.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority converts a priority name (case-insensitive) to a Priority.
// The empty string parses as PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return PriorityCritical, nil
	case "high":
		return PriorityHigh, nil
	case "", "normal":
		return PriorityNormal, nil
	case "low":
		return PriorityLow, nil
	default:
		return PriorityNormal, fmt.Errorf("unknown priority %q (valid: critical, high, normal, low)", s)
	}
}

// StrategyKind names one of the primary-selection strategies.
type StrategyKind string

// Supported strategy kinds.
const (
	StrategyFixed              StrategyKind = "fixed"
	StrategyCostOptimal        StrategyKind = "cost_optimal"
	StrategyFastestFirst       StrategyKind = "fastest_first"
	StrategyHighestReliability StrategyKind = "highest_reliability"
	StrategyRoundRobin         StrategyKind = "round_robin"
	StrategyCapabilityBased    StrategyKind = "capability_based"
	StrategySmart              StrategyKind = "smart"
)

// StrategyKinds returns every supported kind in declaration order.
func StrategyKinds() []StrategyKind {
	return []StrategyKind{
		StrategyFixed,
		StrategyCostOptimal,
		StrategyFastestFirst,
		StrategyHighestReliability,
		StrategyRoundRobin,
		StrategyCapabilityBased,
		StrategySmart,
	}
}

// Valid reports whether k is a supported kind.
func (k StrategyKind) Valid() bool {
	return slices.Contains(StrategyKinds(), k)
}

// Strategy is a configured strategy. Provider is only meaningful for
// StrategyFixed.
type Strategy struct {
	Kind     StrategyKind
	Provider providers.ProviderID
}

// Fixed returns a strategy that always selects id.
func Fixed(id providers.ProviderID) Strategy {
	return Strategy{Kind: StrategyFixed, Provider: id}
}

// String renders the strategy, e.g. "smart" or "fixed(ollama)".
func (s Strategy) String() string {
	if s.Kind == StrategyFixed {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Provider)
	}
	return string(s.Kind)
}

// ParseStrategy builds a Strategy from its configuration name. fixedProvider
// is used only when name is "fixed".
func ParseStrategy(name string, fixedProvider providers.ProviderID) (Strategy, error) {
	kind := StrategyKind(strings.ToLower(strings.TrimSpace(name)))
	if !kind.Valid() {
		return Strategy{}, &InvalidStrategyError{Strategy: name, AvailableStrategies: strategyNames()}
	}
	s := Strategy{Kind: kind}
	if kind == StrategyFixed {
		s.Provider = fixedProvider
	}
	return s, nil
}

func strategyNames() []string {
	kinds := StrategyKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

// Config is the routing configuration. A Router treats a Config as
// immutable once installed; UpdateConfig swaps in a new value.
type Config struct {
	// Strategy selects the primary provider.
	Strategy Strategy

	// FallbackEnabled appends the remaining candidates, ordered by fallback
	// score, after the primary.
	FallbackEnabled bool

	// MaxCostThreshold is the per-request cost (USD) above which the smart
	// strategy applies a penalty. Nil means no threshold.
	MaxCostThreshold *float64

	// MaxLatencyThreshold is advisory. When set, the smart strategy penalizes
	// providers whose average latency exceeds it. Zero means no threshold.
	MaxLatencyThreshold time.Duration

	// PreferredProviders is an ordered preference list.
	PreferredProviders []providers.ProviderID

	// BlockedProviders are never returned.
	BlockedProviders []providers.ProviderID

	// ModelPreferences maps a model name to the provider that should serve it.
	ModelPreferences map[string]providers.ProviderID

	// Health holds the health gate thresholds.
	Health HealthPolicy
}

// DefaultConfig returns a smart-routing configuration with fallback enabled
// and the default health policy.
func DefaultConfig() *Config {
	return &Config{
		Strategy:        Strategy{Kind: StrategySmart},
		FallbackEnabled: true,
		Health:          DefaultHealthPolicy(),
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfiguration)
	}
	if !c.Strategy.Kind.Valid() {
		return &InvalidStrategyError{Strategy: string(c.Strategy.Kind), AvailableStrategies: strategyNames()}
	}
	if c.Strategy.Kind == StrategyFixed && c.Strategy.Provider == "" {
		return fmt.Errorf("%w: fixed strategy requires a provider", ErrInvalidConfiguration)
	}
	if c.MaxCostThreshold != nil && *c.MaxCostThreshold < 0 {
		return fmt.Errorf("%w: max cost threshold must be non-negative", ErrInvalidConfiguration)
	}
	if c.MaxLatencyThreshold < 0 {
		return fmt.Errorf("%w: max latency threshold must be non-negative", ErrInvalidConfiguration)
	}
	if err := c.Health.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	if c.MaxCostThreshold != nil {
		v := *c.MaxCostThreshold
		out.MaxCostThreshold = &v
	}
	out.PreferredProviders = slices.Clone(c.PreferredProviders)
	out.BlockedProviders = slices.Clone(c.BlockedProviders)
	if c.ModelPreferences != nil {
		out.ModelPreferences = make(map[string]providers.ProviderID, len(c.ModelPreferences))
		for k, v := range c.ModelPreferences {
			out.ModelPreferences[k] = v
		}
	}
	return &out
}

// IsBlocked reports whether id is in BlockedProviders.
func (c *Config) IsBlocked(id providers.ProviderID) bool {
	return slices.Contains(c.BlockedProviders, id)
}

// IsPreferred reports whether id is in PreferredProviders.
func (c *Config) IsPreferred(id providers.ProviderID) bool {
	return slices.Contains(c.PreferredProviders, id)
}

// RoutingResult is the outcome of a routing decision.
type RoutingResult struct {
	// RequestID identifies the decision in logs, spans and metrics.
	RequestID string

	// Providers is the ordered attempt list. It is never empty; element 0 is
	// the primary chosen by the strategy and the rest is the fallback chain.
	Providers []providers.ProviderID

	// Strategy is the strategy that chose the primary.
	Strategy string

	// Priority is the request priority the decision was made with.
	Priority Priority

	// Filtered lists the candidates removed before selection, blocked first.
	Filtered []providers.ProviderID
}

// Primary returns the first provider to attempt.
func (r *RoutingResult) Primary() providers.ProviderID {
	return r.Providers[0]
}

// Fallbacks returns the providers to attempt after the primary fails.
func (r *RoutingResult) Fallbacks() []providers.ProviderID {
	return r.Providers[1:]
}

// RoutingStats contains statistics about routing decisions.
type RoutingStats struct {
	// TotalRequests is the total number of routing requests processed.
	TotalRequests int64

	// RequestsPerProvider counts decisions by selected primary.
	RequestsPerProvider map[string]int64

	// StrategyUseCount counts decisions by strategy name.
	StrategyUseCount map[string]int64

	// HealthFilteredCount is the number of requests where at least one
	// unhealthy provider was removed from the candidates.
	HealthFilteredCount int64

	// BlockedFilteredCount is the number of requests where at least one
	// blocked provider was removed from the candidates.
	BlockedFilteredCount int64

	// FallbackChains is the number of results that carried fallbacks.
	FallbackChains int64

	// NoHealthyProviders counts requests rejected because every candidate
	// was blocked or unhealthy.
	NoHealthyProviders int64

	// ConfigurationErrors counts requests rejected by the strategy itself,
	// such as a fixed provider that is not selectable.
	ConfigurationErrors int64

	// Errors is the total number of routing errors.
	Errors int64

	// LastResetTime is when statistics were last reset.
	LastResetTime time.Time
}
