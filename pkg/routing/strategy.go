package routing

import (
	"slices"

	"mercator-hq/conductor/pkg/providers"
)

// RoutingStrategy picks the primary provider from the filtered candidates.
// This is defined here to avoid import cycles with the strategies package.
//
// Implementations must be safe for concurrent use and must only return a
// member of sel.Candidates.
type RoutingStrategy interface {
	SelectProvider(sel *Selection) (providers.ProviderID, error)
	GetName() string
	Reset()
}

// StrategyFactory builds a strategy implementation for a configured Strategy.
type StrategyFactory func(Strategy) (RoutingStrategy, error)

// MetricsLookup returns a copy of a provider's metrics.
type MetricsLookup func(providers.ProviderID) (ProviderMetrics, bool)

// ProviderLookup returns a provider's capability object.
type ProviderLookup func(providers.ProviderID) (providers.Provider, bool)

// Selection is the environment a strategy decides in. It is built per
// request and never mutated by strategies.
type Selection struct {
	// Request is the request being routed. It may be nil.
	Request *providers.GenerationRequest

	// Priority is the caller-declared priority.
	Priority Priority

	// Available are the deduplicated providers the caller offered.
	Available []providers.ProviderID

	// Candidates are the available providers that are neither blocked nor
	// unhealthy, in caller order. It is never empty when a strategy runs.
	Candidates []providers.ProviderID

	// Config is the configuration in force for this request.
	Config *Config

	// Metrics and Providers give read access to tracked metrics and
	// registered capability objects. Either may be nil.
	Metrics   MetricsLookup
	Providers ProviderLookup
}

// Tokens returns the request's estimated token budget.
func (s *Selection) Tokens() TokenEstimate {
	return EstimateTokens(s.Request)
}

// MetricsFor returns the metrics record for id, or nil if there is none.
func (s *Selection) MetricsFor(id providers.ProviderID) *ProviderMetrics {
	if s.Metrics == nil {
		return nil
	}
	m, ok := s.Metrics(id)
	if !ok {
		return nil
	}
	return &m
}

// Provider returns the capability object for id, or nil.
func (s *Selection) Provider(id providers.ProviderID) providers.Provider {
	if s.Providers == nil {
		return nil
	}
	p, ok := s.Providers(id)
	if !ok {
		return nil
	}
	return p
}

// EstimateCost estimates the request cost on id. See EstimateProviderCost.
func (s *Selection) EstimateCost(id providers.ProviderID) (float64, bool) {
	return EstimateProviderCost(s.Provider(id), s.MetricsFor(id), s.Tokens())
}

// LocalAndFree reports whether id declares the local-and-free feature.
func (s *Selection) LocalAndFree(id providers.ProviderID) bool {
	p := s.Provider(id)
	return p != nil && p.Features().LocalAndFree
}

// IsCandidate reports whether id survived filtering.
func (s *Selection) IsCandidate(id providers.ProviderID) bool {
	return slices.Contains(s.Candidates, id)
}

// SmartScore computes the smart score of id for this request.
func (s *Selection) SmartScore(id providers.ProviderID) float64 {
	cfg := s.config()
	cost, known := s.EstimateCost(id)
	return SmartScore(ScoreInput{
		Metrics:             s.MetricsFor(id),
		EstimatedCost:       cost,
		CostKnown:           known,
		LocalAndFree:        s.LocalAndFree(id),
		Preferred:           cfg.IsPreferred(id),
		Priority:            s.Priority,
		MaxCostThreshold:    cfg.MaxCostThreshold,
		MaxLatencyThreshold: cfg.MaxLatencyThreshold,
	})
}

func (s *Selection) config() *Config {
	if s.Config == nil {
		return &Config{}
	}
	return s.Config
}
