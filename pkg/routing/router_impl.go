package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/telemetry/logging"
	"mercator-hq/conductor/pkg/telemetry/tracing"
)

// Option configures a DefaultRouter.
type Option func(*DefaultRouter)

// WithRegistry shares an existing provider registry with the router.
func WithRegistry(reg *providers.Registry) Option {
	return func(r *DefaultRouter) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *DefaultRouter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the tracer used for routing spans. The default is a noop
// tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *DefaultRouter) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithObserver adds an observer.
func WithObserver(obs Observer) Option {
	return func(r *DefaultRouter) {
		if obs != nil {
			r.observers = append(r.observers, obs)
		}
	}
}

// WithClock sets the clock used by the health gate.
func WithClock(now func() time.Time) Option {
	return func(r *DefaultRouter) {
		if now != nil {
			r.now = now
		}
	}
}

// routerState pairs a configuration with the strategy implementation built
// from it. Both are published together so a request never sees one without
// the other.
type routerState struct {
	cfg  *Config
	impl RoutingStrategy
}

// DefaultRouter implements Router. Metrics and the strategy instance are
// bound to the router, so independent routers never share state.
type DefaultRouter struct {
	registry *providers.Registry
	tracker  *MetricsTracker
	selector *ProviderSelector
	factory  StrategyFactory
	stats    *AtomicRoutingStats

	// updateMu serializes UpdateConfig; reads go through state
	updateMu sync.Mutex
	state    atomic.Pointer[routerState]

	logger    *slog.Logger
	tracer    trace.Tracer
	observers Observers
	now       func() time.Time
	closed    atomic.Bool
}

var _ Router = (*DefaultRouter)(nil)

// NewRouter creates a router with cfg, building strategies with factory.
// A zero Health policy in cfg is replaced by DefaultHealthPolicy.
func NewRouter(cfg *Config, factory StrategyFactory, opts ...Option) (*DefaultRouter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("routing config cannot be nil")
	}
	if factory == nil {
		return nil, fmt.Errorf("strategy factory cannot be nil")
	}

	r := &DefaultRouter{
		registry: providers.NewRegistry(),
		factory:  factory,
		stats:    NewAtomicRoutingStats(),
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "router")

	cfg = normalizeConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	impl, err := factory(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	r.tracker = NewMetricsTracker(cfg.Health, r.now)
	r.selector = NewProviderSelector(r.tracker, r.logger)
	r.state.Store(&routerState{cfg: cfg, impl: impl})

	for _, id := range r.registry.IDs() {
		r.tracker.Register(id)
	}

	r.logger.Info("router created",
		"strategy", cfg.Strategy.String(),
		"fallback_enabled", cfg.FallbackEnabled,
		"providers", r.registry.Len(),
	)
	return r, nil
}

func normalizeConfig(cfg *Config) *Config {
	cfg = cfg.Clone()
	if cfg.Health == (HealthPolicy{}) {
		cfg.Health = DefaultHealthPolicy()
	}
	return cfg
}

// RouteRequest implements Router.
func (r *DefaultRouter) RouteRequest(ctx context.Context, req *providers.GenerationRequest, available []providers.ProviderID, priority Priority) (*RoutingResult, error) {
	if r.closed.Load() {
		return nil, ErrRouterClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	r.stats.IncrementTotal()

	state := r.state.Load()
	cfg := state.cfg
	strategyName := state.impl.GetName()

	requestID := logging.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logging.WithRequestID(ctx, requestID)
	}

	ctx, span := r.tracer.Start(ctx, tracing.SpanRouteRequest)
	defer span.End()
	tracing.SetRoutingAttributes(span, requestID, strategyName, priority.String(), len(available))

	filtered, err := r.selector.Filter(available, cfg)
	if len(filtered.Unhealthy) > 0 {
		r.stats.IncrementHealthFiltered()
	}
	if len(filtered.Blocked) > 0 {
		r.stats.IncrementBlockedFiltered()
	}
	if err != nil {
		r.stats.IncrementNoHealthy()
		r.fail(ctx, span, strategyName, err)
		return nil, err
	}

	sel := &Selection{
		Request:    req,
		Priority:   priority,
		Available:  filtered.Available,
		Candidates: filtered.Candidates,
		Config:     cfg,
		Metrics:    r.tracker.Get,
		Providers:  r.registry.Get,
	}

	primary, err := state.impl.SelectProvider(sel)
	if err == nil && !sel.IsCandidate(primary) {
		err = fmt.Errorf("%w: strategy %s selected non-candidate %q", ErrInvalidConfiguration, strategyName, primary)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidConfiguration) {
			r.stats.IncrementConfigError()
		} else {
			r.stats.IncrementErrors()
		}
		r.fail(ctx, span, strategyName, err)
		return nil, err
	}

	order := []providers.ProviderID{primary}
	if cfg.FallbackEnabled {
		order = append(order, BuildFallbackChain(sel, primary)...)
	}

	result := &RoutingResult{
		RequestID: requestID,
		Providers: order,
		Strategy:  strategyName,
		Priority:  priority,
		Filtered:  append(append([]providers.ProviderID{}, filtered.Blocked...), filtered.Unhealthy...),
	}

	r.stats.IncrementProvider(string(primary))
	r.stats.IncrementStrategy(strategyName)
	if len(order) > 1 {
		r.stats.IncrementFallbackChain()
	}
	tracing.SetDecisionAttributes(span, string(primary), len(filtered.Candidates), len(order)-1)

	elapsed := time.Since(start)
	r.logger.DebugContext(ctx, "routing decision",
		"strategy", strategyName,
		"priority", priority.String(),
		"primary", primary,
		"fallbacks", len(order)-1,
		"filtered", len(result.Filtered),
		"duration", elapsed,
	)
	r.observers.OnDecision(result, elapsed)

	return result, nil
}

func (r *DefaultRouter) fail(ctx context.Context, span trace.Span, strategy string, err error) {
	tracing.SetError(span, err)
	r.logger.WarnContext(ctx, "routing failed",
		"strategy", strategy,
		"error", err,
	)
	r.observers.OnRoutingError(strategy, err)
}

// RecordSuccess implements Router.
func (r *DefaultRouter) RecordSuccess(id providers.ProviderID, latency time.Duration, tokens int, cost float64) {
	m, tr := r.tracker.RecordSuccess(id, latency, tokens, cost)
	r.logger.Debug("provider success recorded",
		"provider", id,
		"latency", latency,
		"tokens", tokens,
		"cost", cost,
		"avg_latency_ms", m.AvgLatencyMs,
		"success_rate", m.SuccessRate,
	)
	r.observers.OnOutcome(id, true, m)
	r.healthChanged(id, tr, m)
}

// RecordFailure implements Router.
func (r *DefaultRouter) RecordFailure(id providers.ProviderID) {
	m, tr := r.tracker.RecordFailure(id)
	r.logger.Debug("provider failure recorded",
		"provider", id,
		"consecutive_failures", m.ConsecutiveFailures,
		"success_rate", m.SuccessRate,
	)
	r.observers.OnOutcome(id, false, m)
	r.healthChanged(id, tr, m)
}

func (r *DefaultRouter) healthChanged(id providers.ProviderID, tr HealthTransition, m ProviderMetrics) {
	if !tr.Changed() {
		return
	}
	r.logger.Info("provider health changed",
		"provider", id,
		"healthy", tr.Healthy,
		"consecutive_failures", m.ConsecutiveFailures,
		"success_rate", m.SuccessRate,
	)
	r.observers.OnHealthChange(id, tr.Healthy)
}

// IsHealthy implements Router.
func (r *DefaultRouter) IsHealthy(id providers.ProviderID) bool {
	return r.tracker.IsHealthy(id)
}

// Metrics implements Router.
func (r *DefaultRouter) Metrics(id providers.ProviderID) (ProviderMetrics, bool) {
	return r.tracker.Get(id)
}

// Snapshot implements Router.
func (r *DefaultRouter) Snapshot() map[providers.ProviderID]ProviderMetrics {
	return r.tracker.Snapshot()
}

// RegisterProvider implements Router.
func (r *DefaultRouter) RegisterProvider(p providers.Provider) error {
	if err := r.registry.Register(p); err != nil {
		return err
	}
	r.tracker.Register(p.ID())
	r.logger.Info("provider registered", "provider", p.ID(), "features", p.Features().String())
	return nil
}

// UnregisterProvider implements Router.
func (r *DefaultRouter) UnregisterProvider(id providers.ProviderID) bool {
	ok := r.registry.Unregister(id)
	r.tracker.Remove(id)
	if ok {
		r.logger.Info("provider unregistered", "provider", id)
	}
	return ok
}

// ResetProvider implements Router.
func (r *DefaultRouter) ResetProvider(id providers.ProviderID) bool {
	ok := r.tracker.Reset(id)
	if ok {
		r.logger.Info("provider metrics reset", "provider", id)
		r.observers.OnHealthChange(id, true)
	}
	return ok
}

// UpdateConfig implements Router.
func (r *DefaultRouter) UpdateConfig(cfg *Config) error {
	if r.closed.Load() {
		return ErrRouterClosed
	}
	if cfg == nil {
		return fmt.Errorf("routing config cannot be nil")
	}
	cfg = normalizeConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.updateMu.Lock()
	defer r.updateMu.Unlock()

	current := r.state.Load()
	rebuilt := current.cfg.Strategy != cfg.Strategy
	impl := current.impl
	if rebuilt {
		var err error
		if impl, err = r.factory(cfg.Strategy); err != nil {
			return err
		}
	}
	r.tracker.SetPolicy(cfg.Health)
	r.state.Store(&routerState{cfg: cfg, impl: impl})

	r.logger.Info("routing config updated",
		"strategy", cfg.Strategy.String(),
		"strategy_rebuilt", rebuilt,
		"fallback_enabled", cfg.FallbackEnabled,
	)
	return nil
}

// Config implements Router.
func (r *DefaultRouter) Config() *Config {
	return r.state.Load().cfg.Clone()
}

// GetStrategy implements Router.
func (r *DefaultRouter) GetStrategy() string {
	return r.state.Load().impl.GetName()
}

// GetStats implements Router.
func (r *DefaultRouter) GetStats() *RoutingStats {
	return r.stats.Snapshot()
}

// Registry returns the router's provider registry.
func (r *DefaultRouter) Registry() *providers.Registry {
	return r.registry
}

// Close implements Router.
func (r *DefaultRouter) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.logger.Info("router closed")
	return nil
}
