package strategies

import (
	"sync/atomic"

	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
)

// RoundRobinStrategy cycles through the candidates in filter order.
//
// The strategy is thread-safe and uses an atomic cursor, so concurrent
// calls never observe the same cursor value. The cursor advances on every
// call, including single-candidate calls.
type RoundRobinStrategy struct {
	// cursor is the number of selections made so far
	cursor atomic.Uint64
}

// NewRoundRobinStrategy creates a new round-robin strategy.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// SelectProvider returns Candidates[cursor % len(Candidates)] and advances
// the cursor.
func (s *RoundRobinStrategy) SelectProvider(sel *routing.Selection) (providers.ProviderID, error) {
	if len(sel.Candidates) == 0 {
		return "", errNoCandidates
	}

	// Value before increment
	n := s.cursor.Add(1) - 1
	return sel.Candidates[n%uint64(len(sel.Candidates))], nil
}

// Cursor returns the number of selections made since the last Reset.
func (s *RoundRobinStrategy) Cursor() uint64 {
	return s.cursor.Load()
}

// GetName returns the strategy name.
func (s *RoundRobinStrategy) GetName() string {
	return string(routing.StrategyRoundRobin)
}

// Reset rewinds the cursor to zero.
func (s *RoundRobinStrategy) Reset() {
	s.cursor.Store(0)
}
