// Package tracing provides OpenTelemetry tracing for Conductor.
//
// When telemetry.tracing.enabled is false, New returns a noop tracer and
// spans cost almost nothing. When enabled, spans are batched to an OTLP gRPC
// collector:
//
//	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	router, err := routing.NewRouter(rcfg, strategies.New, routing.WithTracer(tracer.Tracer()))
//
// # Spans
//
//   - conductor.route: one routing decision, with strategy, priority,
//     candidate count, primary and fallback count
//   - conductor.dispatch: executing a request along the routed order
//   - conductor.attempt: one provider call within a dispatch
//
// # Sampling
//
// Three sampling strategies are supported:
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces
//   - ratio: Sample a fraction of traces (default 1.0)
package tracing
