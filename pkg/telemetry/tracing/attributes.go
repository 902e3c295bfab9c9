package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanRouteRequest = "conductor.route"
	SpanDispatch     = "conductor.dispatch"
	SpanAttempt      = "conductor.attempt"
)

// Attribute keys use the "conductor.*" namespace.
const (
	// Routing attributes
	AttrRequestID  = "conductor.request_id"
	AttrStrategy   = "conductor.routing.strategy"
	AttrPriority   = "conductor.routing.priority"
	AttrAvailable  = "conductor.routing.available"
	AttrCandidates = "conductor.routing.candidates"
	AttrPrimary    = "conductor.routing.primary"
	AttrFallbacks  = "conductor.routing.fallbacks"

	// Attempt attributes
	AttrProvider  = "conductor.provider"
	AttrAttempt   = "conductor.attempt"
	AttrRetriable = "conductor.error.retriable"
	AttrErrorType = "conductor.error.type"

	// Usage attributes
	AttrTokensTotal = "conductor.tokens.total"
	AttrCost        = "conductor.cost.total"

	AttrErrorMessage = "error.message"
)

// SetRoutingAttributes records the inputs of a routing decision.
func SetRoutingAttributes(span trace.Span, requestID, strategy, priority string, available int) {
	span.SetAttributes(
		attribute.String(AttrRequestID, requestID),
		attribute.String(AttrStrategy, strategy),
		attribute.String(AttrPriority, priority),
		attribute.Int(AttrAvailable, available),
	)
}

// SetDecisionAttributes records the outcome of a routing decision.
func SetDecisionAttributes(span trace.Span, primary string, candidates, fallbacks int) {
	span.SetAttributes(
		attribute.String(AttrPrimary, primary),
		attribute.Int(AttrCandidates, candidates),
		attribute.Int(AttrFallbacks, fallbacks),
	)
}

// SetAttemptAttributes records which provider an attempt targets.
func SetAttemptAttributes(span trace.Span, provider string, attempt int) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.Int(AttrAttempt, attempt),
	)
}

// SetUsageAttributes records the tokens and cost of a completed attempt.
func SetUsageAttributes(span trace.Span, tokens int, cost float64) {
	span.SetAttributes(
		attribute.Int(AttrTokensTotal, tokens),
		attribute.Float64(AttrCost, cost),
	)
}

// SetAttemptError records a failed attempt's error classification.
func SetAttemptError(span trace.Span, err error, errorType string, retriable bool) {
	span.SetAttributes(
		attribute.String(AttrErrorType, errorType),
		attribute.Bool(AttrRetriable, retriable),
	)
	SetError(span, err)
}
