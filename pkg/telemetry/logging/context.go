package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// ProviderKey is the context key for provider IDs.
	ProviderKey contextKey = "provider"

	// StrategyKey is the context key for routing strategy names.
	StrategyKey contextKey = "strategy"

	// ModelKey is the context key for model names.
	ModelKey contextKey = "model"
)

// contextFields lists the keys copied into log records, in output order.
var contextFields = []contextKey{RequestIDKey, ProviderKey, StrategyKey, ModelKey}

// WithRequestID adds a request ID to the context. The router reuses it as
// the routing decision's ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return value(ctx, RequestIDKey)
}

// WithProvider adds a provider ID to the context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ProviderKey, provider)
}

// GetProvider retrieves the provider ID from the context.
func GetProvider(ctx context.Context) string {
	return value(ctx, ProviderKey)
}

// WithStrategy adds a strategy name to the context.
func WithStrategy(ctx context.Context, strategy string) context.Context {
	return context.WithValue(ctx, StrategyKey, strategy)
}

// GetStrategy retrieves the strategy name from the context.
func GetStrategy(ctx context.Context) string {
	return value(ctx, StrategyKey)
}

// WithModel adds a model name to the context.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// GetModel retrieves the model name from the context.
func GetModel(ctx context.Context) string {
	return value(ctx, ModelKey)
}

func value(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// contextAttrs extracts the logging fields stored in ctx.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range contextFields {
		if v := value(ctx, key); v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}
