package health

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
)

// RouterSource is the part of routing.Router that readiness needs.
type RouterSource interface {
	Snapshot() map[providers.ProviderID]routing.ProviderMetrics
	IsHealthy(id providers.ProviderID) bool
}

// RouterCheck passes when at least minHealthy registered providers pass the
// router's health gate. minHealthy below 1 is treated as 1.
func RouterCheck(src RouterSource, minHealthy int) CheckFunc {
	if minHealthy < 1 {
		minHealthy = 1
	}
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		snapshot := src.Snapshot()
		var unhealthy []string
		healthy := 0
		for id := range snapshot {
			if src.IsHealthy(id) {
				healthy++
			} else {
				unhealthy = append(unhealthy, string(id))
			}
		}

		if len(snapshot) == 0 {
			return fmt.Errorf("no providers registered")
		}
		if healthy < minHealthy {
			sort.Strings(unhealthy)
			return fmt.Errorf("%d of %d providers healthy, need %d (unhealthy: %s)",
				healthy, len(snapshot), minHealthy, strings.Join(unhealthy, ", "))
		}
		return nil
	}
}

// ProviderSource lists the registered providers. *providers.Registry
// implements it.
type ProviderSource interface {
	IDs() []providers.ProviderID
	Get(id providers.ProviderID) (providers.Provider, bool)
}

// ProvidersCheck runs every registered provider's HealthCheck and passes when
// at least minReachable succeed. The source is read on each run, so providers
// added or removed by a reload are picked up. minReachable below 1 is
// treated as 1.
func ProvidersCheck(src ProviderSource, minReachable int) CheckFunc {
	if minReachable < 1 {
		minReachable = 1
	}
	return func(ctx context.Context) error {
		ids := src.IDs()
		if len(ids) == 0 {
			return fmt.Errorf("no providers registered")
		}

		var failed []string
		reachable := 0
		for _, id := range ids {
			p, ok := src.Get(id)
			if !ok {
				continue
			}
			if err := p.HealthCheck(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed = append(failed, fmt.Sprintf("%s: %v", id, err))
				continue
			}
			reachable++
		}

		if reachable < minReachable {
			return fmt.Errorf("%d of %d providers reachable, need %d (%s)",
				reachable, len(ids), minReachable, strings.Join(failed, "; "))
		}
		return nil
	}
}
