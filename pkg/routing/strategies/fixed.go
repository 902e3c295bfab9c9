package strategies

import (
	"slices"

	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
)

// FixedStrategy always selects one configured provider. If that provider did
// not survive filtering the request fails with a configuration error rather
// than silently routing elsewhere.
type FixedStrategy struct {
	provider providers.ProviderID
}

// NewFixedStrategy creates a strategy pinned to id.
func NewFixedStrategy(id providers.ProviderID) *FixedStrategy {
	return &FixedStrategy{provider: id}
}

// SelectProvider returns the fixed provider if it is a candidate.
func (s *FixedStrategy) SelectProvider(sel *routing.Selection) (providers.ProviderID, error) {
	if sel.IsCandidate(s.provider) {
		return s.provider, nil
	}

	reason := routing.ReasonUnhealthy
	switch {
	case !slices.Contains(sel.Available, s.provider):
		reason = routing.ReasonNotAvailable
	case sel.Config != nil && sel.Config.IsBlocked(s.provider):
		reason = routing.ReasonBlocked
	}
	return "", &routing.FixedProviderUnavailableError{Provider: s.provider, Reason: reason}
}

// GetName returns the strategy name.
func (s *FixedStrategy) GetName() string {
	return string(routing.StrategyFixed)
}

// Reset is a no-op; the strategy is stateless.
func (s *FixedStrategy) Reset() {}
