// Package strategies implements the primary-provider selection strategies
// used by routing.DefaultRouter.
//
// Every strategy receives a routing.Selection whose Candidates are already
// deduplicated, filtered by the block list and the health gate, and non-empty.
// A strategy returns one member of Candidates or an error; it never inspects
// provider internals beyond the capability contract.
//
// Example usage:
//
//	router, err := routing.NewRouter(cfg, strategies.New)
package strategies

import (
	"errors"

	"mercator-hq/conductor/pkg/routing"
)

// errNoCandidates guards strategies called outside the router.
var errNoCandidates = errors.New("no candidate providers")

// New builds the strategy implementation for s. It satisfies
// routing.StrategyFactory.
func New(s routing.Strategy) (routing.RoutingStrategy, error) {
	switch s.Kind {
	case routing.StrategyFixed:
		return NewFixedStrategy(s.Provider), nil
	case routing.StrategyCostOptimal:
		return NewCostOptimalStrategy(), nil
	case routing.StrategyFastestFirst:
		return NewFastestFirstStrategy(), nil
	case routing.StrategyHighestReliability:
		return NewHighestReliabilityStrategy(), nil
	case routing.StrategyRoundRobin:
		return NewRoundRobinStrategy(), nil
	case routing.StrategyCapabilityBased:
		return NewCapabilityBasedStrategy(), nil
	case routing.StrategySmart:
		return NewSmartStrategy(), nil
	default:
		names := make([]string, 0, len(routing.StrategyKinds()))
		for _, k := range routing.StrategyKinds() {
			names = append(names, string(k))
		}
		return nil, &routing.InvalidStrategyError{Strategy: string(s.Kind), AvailableStrategies: names}
	}
}

var _ routing.StrategyFactory = New
