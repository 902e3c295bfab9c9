package routing

import (
	"context"
	"time"

	"mercator-hq/conductor/pkg/providers"
)

// Router decides which provider should serve a request and in what order
// the remaining providers should be tried. It owns the per-provider metrics
// that feed those decisions; callers report every completed attempt back
// through RecordSuccess or RecordFailure.
//
// RouteRequest performs no network I/O. Provider calls are made by the
// caller using the returned order.
//
// Router implementations must be thread-safe for concurrent use.
//
// Example usage:
//
//	router, err := routing.NewRouter(cfg, strategies.New)
//	if err != nil {
//	    return err
//	}
//
//	result, err := router.RouteRequest(ctx, req, []providers.ProviderID{"ollama", "openai"}, routing.PriorityNormal)
//	if err != nil {
//	    return err
//	}
//
//	for _, id := range result.Providers {
//	    // attempt id, then RecordSuccess or RecordFailure
//	}
type Router interface {
	// RouteRequest filters available by the block list and the health gate,
	// selects a primary with the configured strategy, and appends the
	// fallback chain when enabled.
	//
	// It returns a non-empty list or an error; never an empty list.
	// Errors match ErrNoHealthyProviders when every candidate is blocked or
	// unhealthy, and ErrInvalidConfiguration when the strategy cannot be
	// satisfied.
	RouteRequest(ctx context.Context, req *providers.GenerationRequest, available []providers.ProviderID, priority Priority) (*RoutingResult, error)

	// RecordSuccess records a completed call on id.
	RecordSuccess(id providers.ProviderID, latency time.Duration, tokens int, cost float64)

	// RecordFailure records a failed call on id.
	RecordFailure(id providers.ProviderID)

	// IsHealthy applies the health gate to id.
	IsHealthy(id providers.ProviderID) bool

	// Metrics returns a copy of id's metrics.
	Metrics(id providers.ProviderID) (ProviderMetrics, bool)

	// Snapshot returns copies of all metrics.
	Snapshot() map[providers.ProviderID]ProviderMetrics

	// RegisterProvider makes a provider's features and pricing available to
	// strategies and creates its metrics record.
	RegisterProvider(p providers.Provider) error

	// UnregisterProvider forgets a provider and its metrics.
	UnregisterProvider(id providers.ProviderID) bool

	// ResetProvider restores id's metrics to the optimistic defaults.
	ResetProvider(id providers.ProviderID) bool

	// UpdateConfig installs a new configuration. The strategy instance, and
	// with it any round-robin position, is kept when the strategy is unchanged.
	UpdateConfig(cfg *Config) error

	// Config returns a copy of the configuration in force.
	Config() *Config

	// GetStrategy returns the name of the configured routing strategy.
	GetStrategy() string

	// GetStats returns current routing statistics.
	// The returned stats are a snapshot and won't be updated.
	GetStats() *RoutingStats

	// Close closes the router. Subsequent RouteRequest calls fail with
	// ErrRouterClosed.
	Close() error
}
