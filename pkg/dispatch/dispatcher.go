package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
	"mercator-hq/conductor/pkg/telemetry/logging"
	"mercator-hq/conductor/pkg/telemetry/tracing"
)

// ErrorRecorder receives the classification of every failed attempt.
// *metrics.Collector implements it.
type ErrorRecorder interface {
	RecordProviderError(id providers.ProviderID, errorType string)
}

// Attempt describes one provider call.
type Attempt struct {
	Provider  providers.ProviderID
	Latency   time.Duration
	Err       error
	ErrorType string
}

// Result is a successful dispatch.
type Result struct {
	Response *providers.GenerationResponse
	Routing  *routing.RoutingResult

	// Provider served the response.
	Provider providers.ProviderID

	// Attempts holds every provider tried, the successful one last.
	// Providers whose ValidateRequest rejected the request were never
	// called and appear with ErrorType "validation".
	Attempts []Attempt

	Latency time.Duration
	Cost    float64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithTracer sets the tracer used for dispatch and attempt spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// WithErrorRecorder reports failed attempts to rec.
func WithErrorRecorder(rec ErrorRecorder) Option {
	return func(d *Dispatcher) { d.errors = rec }
}

// WithClock replaces time.Now for latency measurement.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// Dispatcher executes requests in the order chosen by a router and feeds
// every outcome back into it. Retriable failures move on to the next
// provider; non-retriable failures stop the chain. A provider that lacks a
// feature the request needs is skipped without touching its metrics.
type Dispatcher struct {
	router routing.Router
	lookup routing.ProviderLookup
	errors ErrorRecorder
	tracer trace.Tracer
	logger *slog.Logger
	now    func() time.Time
}

// New creates a dispatcher. lookup resolves routed IDs to callable
// providers, usually the router's registry Get method.
func New(router routing.Router, lookup routing.ProviderLookup, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		router: router,
		lookup: lookup,
		tracer: noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "dispatcher")
	return d
}

// Generate routes req over available and calls providers in order until
// one succeeds. A request that fails CheckGenerationRequest is rejected
// before routing.
func (d *Dispatcher) Generate(ctx context.Context, req *providers.GenerationRequest, available []providers.ProviderID, priority routing.Priority) (*Result, error) {
	ctx, span := d.tracer.Start(ctx, tracing.SpanDispatch)
	defer span.End()

	decision, err := d.route(ctx, req, available, priority)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}
	ctx = logging.WithRequestID(ctx, decision.RequestID)

	var attempts []Attempt
	for i, id := range decision.Providers {
		p, ok := d.lookup(id)
		if !ok {
			d.logger.WarnContext(ctx, "routed provider is not registered, skipping", "provider", id)
			continue
		}
		if err := p.ValidateRequest(req); err != nil {
			attempts = append(attempts, d.reject(ctx, id, err))
			continue
		}

		resp, attempt, cost := d.attempt(ctx, p, req, i+1)
		attempts = append(attempts, attempt)
		if attempt.Err == nil {
			tracing.SetStatus(span, nil)
			return &Result{
				Response: resp,
				Routing:  decision,
				Provider: id,
				Attempts: attempts,
				Latency:  attempt.Latency,
				Cost:     cost,
			}, nil
		}

		if stop := d.stop(ctx, attempt); stop != nil {
			tracing.SetError(span, stop)
			return nil, stop
		}
	}

	err = allFailed(attempts, "no routed provider is registered")
	tracing.SetError(span, err)
	d.logger.WarnContext(ctx, "all providers failed", "attempted", len(attempts), "error", err)
	return nil, err
}

func (d *Dispatcher) route(ctx context.Context, req *providers.GenerationRequest, available []providers.ProviderID, priority routing.Priority) (*routing.RoutingResult, error) {
	if err := providers.CheckGenerationRequest(req); err != nil {
		return nil, err
	}
	return d.router.RouteRequest(ctx, req, available, priority)
}

// reject records a provider that cannot serve req. The provider was never
// called, so neither the router nor the error recorder hears about it.
func (d *Dispatcher) reject(ctx context.Context, id providers.ProviderID, err error) Attempt {
	d.logger.DebugContext(logging.WithProvider(ctx, string(id)), "provider cannot serve request, skipping",
		"error", err,
	)
	return Attempt{Provider: id, Err: err, ErrorType: providers.ErrorType(err)}
}

func (d *Dispatcher) attempt(ctx context.Context, p providers.Provider, req *providers.GenerationRequest, n int) (*providers.GenerationResponse, Attempt, float64) {
	id := p.ID()
	ctx, span := d.tracer.Start(ctx, tracing.SpanAttempt)
	defer span.End()
	tracing.SetAttemptAttributes(span, string(id), n)

	start := d.now()
	resp, err := p.Generate(ctx, req)
	attempt := Attempt{Provider: id, Latency: d.now().Sub(start)}

	if err != nil {
		d.fail(ctx, span, &attempt, err)
		return nil, attempt, 0
	}

	cost := p.EstimateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	d.router.RecordSuccess(id, attempt.Latency, resp.Usage.TotalTokens, cost)
	tracing.SetUsageAttributes(span, resp.Usage.TotalTokens, cost)
	tracing.SetStatus(span, nil)

	d.logger.DebugContext(logging.WithProvider(ctx, string(id)), "provider call succeeded",
		"attempt", n,
		"latency_ms", attempt.Latency.Milliseconds(),
		"tokens", resp.Usage.TotalTokens,
		"cost", cost,
	)
	return resp, attempt, cost
}

// fail classifies err into attempt and records it. Cancellation by the
// caller is not held against the provider.
func (d *Dispatcher) fail(ctx context.Context, span trace.Span, attempt *Attempt, err error) {
	attempt.Err = err
	attempt.ErrorType = providers.ErrorType(err)
	retriable := providers.IsRetriable(err)
	tracing.SetAttemptError(span, err, attempt.ErrorType, retriable)

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}
	d.router.RecordFailure(attempt.Provider)
	if d.errors != nil {
		d.errors.RecordProviderError(attempt.Provider, attempt.ErrorType)
	}
	d.logger.InfoContext(logging.WithProvider(ctx, string(attempt.Provider)), "provider call failed",
		"error_type", attempt.ErrorType,
		"retriable", retriable,
		"error", err,
	)
}

// stop returns the error that ends the chain after a failed attempt, or
// nil to try the next provider.
func (d *Dispatcher) stop(ctx context.Context, attempt Attempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !providers.IsRetriable(attempt.Err) {
		return fmt.Errorf("provider %q: %w", attempt.Provider, attempt.Err)
	}
	return nil
}

// allFailed builds the error for an exhausted chain. reason explains an
// empty chain, where no provider was attempted at all.
func allFailed(attempts []Attempt, reason string) error {
	e := &AllProvidersFailedError{}
	for _, a := range attempts {
		e.Attempted = append(e.Attempted, a.Provider)
		e.LastError = a.Err
	}
	if e.LastError == nil {
		e.LastError = errors.New(reason)
	}
	return e
}
