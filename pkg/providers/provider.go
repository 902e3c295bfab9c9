package providers

import "context"

// ProviderID identifies one backend. It is opaque to the router: two IDs are
// the same provider if and only if they compare equal.
type ProviderID string

// String returns the identifier as a plain string.
func (id ProviderID) String() string {
	return string(id)
}

// Provider is the capability contract every text-generation backend exposes
// to the router and to callers that execute routed requests. Concrete
// implementations (cloud HTTP clients, local inference engines) live outside
// this module; the router only ever calls the methods below and never
// inspects provider internals.
//
// All methods that may block accept a context.Context for cancellation.
// Implementations must be safe for concurrent use.
//
// Example usage:
//
//	resp, err := provider.Generate(ctx, &providers.GenerationRequest{
//	    Prompt:    "Explain photosynthesis to a ten year old.",
//	    MaxTokens: 400,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Content)
type Provider interface {
	// ID returns the provider's stable identity.
	ID() ProviderID

	// Generate sends a completion request and waits for the full response.
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error)

	// GenerateStream sends a completion request and returns a channel of
	// incremental chunks. The channel is closed when the stream ends; a
	// mid-stream failure is reported in the Error field of the last chunk.
	GenerateStream(ctx context.Context, req *GenerationRequest) (<-chan *StreamChunk, error)

	// ValidateRequest checks that the request can be served by this provider
	// (model support, parameter ranges, declared features) without sending it.
	ValidateRequest(req *GenerationRequest) error

	// EstimateCost returns the expected cost in USD of serving a request with
	// the given prompt and completion token counts.
	EstimateCost(promptTokens, completionTokens int) float64

	// HealthCheck performs a lightweight reachability probe.
	HealthCheck(ctx context.Context) error

	// Features returns the provider's declared feature flags.
	Features() Features
}
