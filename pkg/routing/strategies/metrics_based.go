package strategies

import (
	"math"

	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
)

// minimize returns the candidate with the lowest key. Ties resolve to the
// earliest candidate.
func minimize(sel *routing.Selection, key func(providers.ProviderID) float64) (providers.ProviderID, error) {
	if len(sel.Candidates) == 0 {
		return "", errNoCandidates
	}
	best := sel.Candidates[0]
	bestKey := key(best)
	for _, id := range sel.Candidates[1:] {
		if k := key(id); k < bestKey {
			best, bestKey = id, k
		}
	}
	return best, nil
}

// CostOptimalStrategy selects the candidate with the lowest estimated cost
// for the request's token budget. Candidates that cannot be priced are
// treated as infinitely expensive.
type CostOptimalStrategy struct{}

// NewCostOptimalStrategy creates a cost-optimal strategy.
func NewCostOptimalStrategy() *CostOptimalStrategy {
	return &CostOptimalStrategy{}
}

// SelectProvider implements routing.RoutingStrategy.
func (s *CostOptimalStrategy) SelectProvider(sel *routing.Selection) (providers.ProviderID, error) {
	return minimize(sel, func(id providers.ProviderID) float64 {
		cost, ok := sel.EstimateCost(id)
		if !ok {
			return math.Inf(1)
		}
		return cost
	})
}

// GetName returns the strategy name.
func (s *CostOptimalStrategy) GetName() string {
	return string(routing.StrategyCostOptimal)
}

// Reset is a no-op.
func (s *CostOptimalStrategy) Reset() {}

// FastestFirstStrategy selects the candidate with the lowest average
// latency. Candidates without metrics are never preferred.
type FastestFirstStrategy struct{}

// NewFastestFirstStrategy creates a fastest-first strategy.
func NewFastestFirstStrategy() *FastestFirstStrategy {
	return &FastestFirstStrategy{}
}

// SelectProvider implements routing.RoutingStrategy.
func (s *FastestFirstStrategy) SelectProvider(sel *routing.Selection) (providers.ProviderID, error) {
	return minimize(sel, func(id providers.ProviderID) float64 {
		m := sel.MetricsFor(id)
		if m == nil {
			return math.Inf(1)
		}
		return m.AvgLatencyMs
	})
}

// GetName returns the strategy name.
func (s *FastestFirstStrategy) GetName() string {
	return string(routing.StrategyFastestFirst)
}

// Reset is a no-op.
func (s *FastestFirstStrategy) Reset() {}

// HighestReliabilityStrategy selects the candidate with the highest success
// rate. Candidates without metrics count as zero.
type HighestReliabilityStrategy struct{}

// NewHighestReliabilityStrategy creates a highest-reliability strategy.
func NewHighestReliabilityStrategy() *HighestReliabilityStrategy {
	return &HighestReliabilityStrategy{}
}

// SelectProvider implements routing.RoutingStrategy.
func (s *HighestReliabilityStrategy) SelectProvider(sel *routing.Selection) (providers.ProviderID, error) {
	return minimize(sel, func(id providers.ProviderID) float64 {
		m := sel.MetricsFor(id)
		if m == nil {
			return 0
		}
		return -m.SuccessRate
	})
}

// GetName returns the strategy name.
func (s *HighestReliabilityStrategy) GetName() string {
	return string(routing.StrategyHighestReliability)
}

// Reset is a no-op.
func (s *HighestReliabilityStrategy) Reset() {}
