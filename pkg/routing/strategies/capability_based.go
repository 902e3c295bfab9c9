package strategies

import (
	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
)

// CapabilityBasedStrategy honours explicit configuration before falling
// back to candidate order:
//  1. the provider mapped to the request's model in ModelPreferences
//  2. the first candidate listed in PreferredProviders
//  3. the first candidate
type CapabilityBasedStrategy struct{}

// NewCapabilityBasedStrategy creates a capability-based strategy.
func NewCapabilityBasedStrategy() *CapabilityBasedStrategy {
	return &CapabilityBasedStrategy{}
}

// SelectProvider implements routing.RoutingStrategy.
func (s *CapabilityBasedStrategy) SelectProvider(sel *routing.Selection) (providers.ProviderID, error) {
	if len(sel.Candidates) == 0 {
		return "", errNoCandidates
	}

	if cfg := sel.Config; cfg != nil {
		if sel.Request != nil && sel.Request.Model != "" {
			if id, ok := cfg.ModelPreferences[sel.Request.Model]; ok && sel.IsCandidate(id) {
				return id, nil
			}
		}
		for _, id := range cfg.PreferredProviders {
			if sel.IsCandidate(id) {
				return id, nil
			}
		}
	}

	return sel.Candidates[0], nil
}

// GetName returns the strategy name.
func (s *CapabilityBasedStrategy) GetName() string {
	return string(routing.StrategyCapabilityBased)
}

// Reset is a no-op.
func (s *CapabilityBasedStrategy) Reset() {}
