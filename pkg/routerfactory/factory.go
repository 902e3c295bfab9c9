package routerfactory

import (
	"fmt"
	"log/slog"
	"sort"

	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/providers/simulated"
	"mercator-hq/conductor/pkg/routing"
	"mercator-hq/conductor/pkg/routing/strategies"
)

// RoutingConfig converts the YAML routing section into a routing.Config.
//
// Example:
//
//	rcfg, err := routerfactory.RoutingConfig(&cfg.Routing)
//	if err != nil {
//	    return err
//	}
//	if err := router.UpdateConfig(rcfg); err != nil {
//	    return err
//	}
func RoutingConfig(cfg *config.RoutingConfig) (*routing.Config, error) {
	strategy, err := routing.ParseStrategy(cfg.Strategy, providers.ProviderID(cfg.FixedProvider))
	if err != nil {
		return nil, err
	}

	out := &routing.Config{
		Strategy:            strategy,
		FallbackEnabled:     cfg.IsFallbackEnabled(),
		MaxLatencyThreshold: cfg.MaxLatencyThreshold,
		PreferredProviders:  toIDs(cfg.PreferredProviders),
		BlockedProviders:    toIDs(cfg.BlockedProviders),
		Health: routing.HealthPolicy{
			FailureThreshold: cfg.Health.FailureThreshold,
			MinSuccessRate:   cfg.Health.MinSuccessRate,
			FailureCooldown:  cfg.Health.FailureCooldown,
		},
	}
	if cfg.MaxCostThreshold != nil {
		v := *cfg.MaxCostThreshold
		out.MaxCostThreshold = &v
	}
	if len(cfg.ModelPreferences) > 0 {
		out.ModelPreferences = make(map[string]providers.ProviderID, len(cfg.ModelPreferences))
		for model, id := range cfg.ModelPreferences {
			out.ModelPreferences[model] = providers.ProviderID(id)
		}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// NewProvider creates the simulated backend declared under providers.<id>.
func NewProvider(id string, cfg config.ProviderConfig) (*simulated.Provider, error) {
	p, err := simulated.New(simulated.Config{
		ID:    providers.ProviderID(id),
		Model: cfg.Model,
		Features: providers.Features{
			Streaming:       cfg.Features.Streaming,
			SystemPrompt:    cfg.Features.SystemPrompt,
			Vision:          cfg.Features.Vision,
			FunctionCalling: cfg.Features.FunctionCalling,
			JSONMode:        cfg.Features.JSONMode,
			LocalAndFree:    cfg.LocalAndFree,
		},
		PromptCostPer1K:     cfg.PromptCostPer1K,
		CompletionCostPer1K: cfg.CompletionCostPer1K,
		Latency:             cfg.Latency,
		Jitter:              cfg.Jitter,
		FailureRate:         cfg.FailureRate,
		Seed:                cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", id, err)
	}
	return p, nil
}

// NewProviders creates every declared provider, ordered by ID.
func NewProviders(cfg map[string]config.ProviderConfig) ([]*simulated.Provider, error) {
	out := make([]*simulated.Provider, 0, len(cfg))
	for _, id := range sortedIDs(cfg) {
		p, err := NewProvider(id, cfg[id])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// New builds a router from a complete configuration and registers every
// declared provider with it. opts are passed to routing.NewRouter, so the
// logger, tracer and observer are supplied by the caller.
//
// Example:
//
//	router, err := routerfactory.New(cfg,
//	    routing.WithLogger(tel.Logger()),
//	    routing.WithObserver(tel.Metrics()),
//	)
func New(cfg *config.Config, opts ...routing.Option) (*routing.DefaultRouter, error) {
	rcfg, err := RoutingConfig(&cfg.Routing)
	if err != nil {
		return nil, fmt.Errorf("invalid routing configuration: %w", err)
	}

	router, err := routing.NewRouter(rcfg, strategies.New, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	backends, err := NewProviders(cfg.Providers)
	if err != nil {
		return nil, err
	}
	for _, p := range backends {
		if err := router.RegisterProvider(p); err != nil {
			return nil, fmt.Errorf("failed to register provider %q: %w", p.ID(), err)
		}
	}

	return router, nil
}

// ReloadResult reports the provider changes made by Reload.
type ReloadResult struct {
	Added    []providers.ProviderID
	Updated  []providers.ProviderID
	Removed  []providers.ProviderID
	Strategy string
}

// Reload applies a new configuration to a running router. The routing
// config is swapped first; if it is rejected nothing else changes. Declared
// providers are then re-registered, which keeps their metrics, and
// providers no longer declared are unregistered.
func Reload(router *routing.DefaultRouter, cfg *config.Config, logger *slog.Logger) (*ReloadResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rcfg, err := RoutingConfig(&cfg.Routing)
	if err != nil {
		return nil, fmt.Errorf("invalid routing configuration: %w", err)
	}
	backends, err := NewProviders(cfg.Providers)
	if err != nil {
		return nil, err
	}
	if err := router.UpdateConfig(rcfg); err != nil {
		return nil, fmt.Errorf("failed to update routing configuration: %w", err)
	}

	result := &ReloadResult{Strategy: router.GetStrategy()}
	registry := router.Registry()
	declared := make(map[providers.ProviderID]bool, len(backends))

	for _, p := range backends {
		declared[p.ID()] = true
		if _, exists := registry.Get(p.ID()); exists {
			result.Updated = append(result.Updated, p.ID())
		} else {
			result.Added = append(result.Added, p.ID())
		}
		if err := router.RegisterProvider(p); err != nil {
			return result, fmt.Errorf("failed to register provider %q: %w", p.ID(), err)
		}
	}
	for _, id := range registry.IDs() {
		if !declared[id] {
			router.UnregisterProvider(id)
			result.Removed = append(result.Removed, id)
		}
	}

	logger.Info("router reloaded",
		"strategy", result.Strategy,
		"added", len(result.Added),
		"updated", len(result.Updated),
		"removed", len(result.Removed),
	)
	return result, nil
}

func toIDs(in []string) []providers.ProviderID {
	if len(in) == 0 {
		return nil
	}
	out := make([]providers.ProviderID, len(in))
	for i, s := range in {
		out[i] = providers.ProviderID(s)
	}
	return out
}

func sortedIDs(cfg map[string]config.ProviderConfig) []string {
	ids := make([]string, 0, len(cfg))
	for id := range cfg {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
