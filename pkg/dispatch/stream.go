package dispatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
	"mercator-hq/conductor/pkg/telemetry/logging"
	"mercator-hq/conductor/pkg/telemetry/tracing"
)

// Stream is an established streaming response.
type Stream struct {
	// Chunks delivers the response. It is closed after the final chunk,
	// after a chunk carrying an error, or when the context is cancelled.
	Chunks <-chan *providers.StreamChunk

	Routing  *routing.RoutingResult
	Provider providers.ProviderID

	// Attempts holds the failed attempts made before the stream opened.
	Attempts []Attempt
}

// Stream routes req and opens a stream on the first provider that accepts
// it. Providers that do not declare streaming, or whose ValidateRequest
// rejects req, are skipped without touching their metrics. Failover only
// happens while opening the stream; once chunks flow, a mid-stream error is
// delivered to the caller and recorded as a failure of that provider.
func (d *Dispatcher) Stream(ctx context.Context, req *providers.GenerationRequest, available []providers.ProviderID, priority routing.Priority) (*Stream, error) {
	ctx, span := d.tracer.Start(ctx, tracing.SpanDispatch)
	defer span.End()

	decision, err := d.route(ctx, req, available, priority)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}
	ctx = logging.WithRequestID(ctx, decision.RequestID)

	var attempts []Attempt
	reason := "no routed provider is registered"
	for i, id := range decision.Providers {
		p, ok := d.lookup(id)
		if !ok {
			d.logger.WarnContext(ctx, "routed provider is not registered, skipping", "provider", id)
			continue
		}
		if !p.Features().Streaming {
			d.logger.DebugContext(ctx, "provider does not stream, skipping", "provider", id)
			reason = "no routed provider supports streaming"
			continue
		}
		if err := p.ValidateRequest(req); err != nil {
			attempts = append(attempts, d.reject(ctx, id, err))
			continue
		}

		attemptCtx, attemptSpan := d.tracer.Start(ctx, tracing.SpanAttempt)
		tracing.SetAttemptAttributes(attemptSpan, string(id), i+1)

		start := d.now()
		src, err := p.GenerateStream(attemptCtx, req)
		if err != nil {
			attempt := Attempt{Provider: id, Latency: d.now().Sub(start)}
			d.fail(attemptCtx, attemptSpan, &attempt, err)
			attemptSpan.End()
			attempts = append(attempts, attempt)

			if stop := d.stop(ctx, attempt); stop != nil {
				tracing.SetError(span, stop)
				return nil, stop
			}
			continue
		}

		out := make(chan *providers.StreamChunk)
		go d.forward(attemptCtx, attemptSpan, p, start, src, out)

		tracing.SetStatus(span, nil)
		return &Stream{Chunks: out, Routing: decision, Provider: id, Attempts: attempts}, nil
	}

	err = allFailed(attempts, reason)
	tracing.SetError(span, err)
	d.logger.WarnContext(ctx, "no provider opened a stream", "attempted", len(attempts), "error", err)
	return nil, err
}

// forward copies chunks from src to out and records the outcome when the
// stream ends.
func (d *Dispatcher) forward(ctx context.Context, span trace.Span, p providers.Provider, start time.Time, src <-chan *providers.StreamChunk, out chan<- *providers.StreamChunk) {
	defer close(out)
	defer span.End()

	id := p.ID()
	var usage *providers.TokenUsage

	for {
		select {
		case <-ctx.Done():
			tracing.SetError(span, ctx.Err())
			return

		case chunk, ok := <-src:
			if !ok {
				d.streamSucceeded(ctx, span, p, start, usage)
				return
			}
			if chunk.Error != nil {
				attempt := Attempt{Provider: id, Latency: d.now().Sub(start)}
				d.fail(ctx, span, &attempt, chunk.Error)
			}
			if chunk.Usage != nil {
				usage = chunk.Usage
			}

			select {
			case out <- chunk:
			case <-ctx.Done():
				tracing.SetError(span, ctx.Err())
				return
			}
			if chunk.Error != nil {
				return
			}
		}
	}
}

func (d *Dispatcher) streamSucceeded(ctx context.Context, span trace.Span, p providers.Provider, start time.Time, usage *providers.TokenUsage) {
	latency := d.now().Sub(start)
	var tokens int
	var cost float64
	if usage != nil {
		tokens = usage.TotalTokens
		cost = p.EstimateCost(usage.PromptTokens, usage.CompletionTokens)
	}

	d.router.RecordSuccess(p.ID(), latency, tokens, cost)
	tracing.SetUsageAttributes(span, tokens, cost)
	tracing.SetStatus(span, nil)

	d.logger.DebugContext(logging.WithProvider(ctx, string(p.ID())), "stream completed",
		"latency_ms", latency.Milliseconds(),
		"tokens", tokens,
		"cost", cost,
	)
}
