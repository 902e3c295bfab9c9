package routing

import (
	"time"

	"mercator-hq/conductor/pkg/providers"
)

// Observer is notified of routing decisions and recorded outcomes. Calls
// are made synchronously on the routing path and must not block.
type Observer interface {
	// OnDecision is called after a successful routing decision.
	OnDecision(result *RoutingResult, elapsed time.Duration)

	// OnRoutingError is called when routing fails.
	OnRoutingError(strategy string, err error)

	// OnOutcome is called after a success or failure is recorded, with the
	// provider's updated metrics.
	OnOutcome(id providers.ProviderID, success bool, m ProviderMetrics)

	// OnHealthChange is called when a recorded outcome flips the health gate.
	OnHealthChange(id providers.ProviderID, healthy bool)
}

// NopObserver ignores every notification. Embed it to implement a subset
// of Observer.
type NopObserver struct{}

func (NopObserver) OnDecision(*RoutingResult, time.Duration) {}
func (NopObserver) OnRoutingError(string, error) {}
func (NopObserver) OnOutcome(providers.ProviderID, bool, ProviderMetrics) {}
func (NopObserver) OnHealthChange(providers.ProviderID, bool) {}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (o Observers) OnDecision(result *RoutingResult, elapsed time.Duration) {
	for _, obs := range o {
		obs.OnDecision(result, elapsed)
	}
}

func (o Observers) OnRoutingError(strategy string, err error) {
	for _, obs := range o {
		obs.OnRoutingError(strategy, err)
	}
}

func (o Observers) OnOutcome(id providers.ProviderID, success bool, m ProviderMetrics) {
	for _, obs := range o {
		obs.OnOutcome(id, success, m)
	}
}

func (o Observers) OnHealthChange(id providers.ProviderID, healthy bool) {
	for _, obs := range o {
		obs.OnHealthChange(id, healthy)
	}
}
