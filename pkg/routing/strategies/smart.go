package strategies

import (
	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
)

// SmartStrategy selects the candidate with the highest routing.SmartScore,
// combining reliability, speed, cost, priority and preference. Ties resolve
// to the earliest candidate.
//
// Scores read metric copies, so concurrent outcome recording for other
// providers only makes a decision slightly stale.
type SmartStrategy struct{}

// NewSmartStrategy creates a smart strategy.
func NewSmartStrategy() *SmartStrategy {
	return &SmartStrategy{}
}

// SelectProvider implements routing.RoutingStrategy.
func (s *SmartStrategy) SelectProvider(sel *routing.Selection) (providers.ProviderID, error) {
	return minimize(sel, func(id providers.ProviderID) float64 {
		return -sel.SmartScore(id)
	})
}

// Scores returns the smart score of every candidate, for diagnostics.
func (s *SmartStrategy) Scores(sel *routing.Selection) map[providers.ProviderID]float64 {
	out := make(map[providers.ProviderID]float64, len(sel.Candidates))
	for _, id := range sel.Candidates {
		out[id] = sel.SmartScore(id)
	}
	return out
}

// GetName returns the strategy name.
func (s *SmartStrategy) GetName() string {
	return string(routing.StrategySmart)
}

// Reset is a no-op.
func (s *SmartStrategy) Reset() {}
