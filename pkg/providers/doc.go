// Package providers defines the capability contract shared by every
// text-generation backend the router can choose between.
//
// # Overview
//
// A provider is a cloud API or a local inference engine. This package does
// not implement any wire protocol; it only fixes the shape of the interface
// that concrete clients implement:
//
//   - ID: stable, comparable identity
//   - Generate / GenerateStream: execute a request
//   - ValidateRequest: pre-flight check without network I/O
//   - EstimateCost: expected USD cost for a token budget
//   - HealthCheck: lightweight reachability probe
//   - Features: declared flags (streaming, system prompt, vision,
//     function calling, JSON mode, local-and-free)
//
// # Registry
//
// The Registry maps IDs to capability objects so the router can read
// features and pricing generically:
//
//	registry := providers.NewRegistry()
//	if err := registry.Register(ollamaClient); err != nil {
//	    return err
//	}
//
// # Errors
//
// Providers report failures with the typed errors in this package
// (RateLimitError, TimeoutError, AuthError, UnavailableError, ...).
// IsRetriable decides whether a failure should move on to the next
// provider in a fallback chain, and ErrorType maps an error to a short
// label suitable for logs and metrics.
package providers
