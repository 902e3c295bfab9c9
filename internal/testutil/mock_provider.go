// Package testutil contains test doubles shared across packages.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"mercator-hq/conductor/pkg/providers"
)

// MockProvider is a mock implementation of the Provider interface for testing.
// Pricing is linear in tokens; results can be scripted with SetError.
type MockProvider struct {
	id       providers.ProviderID
	features providers.Features

	mu           sync.Mutex
	costPerToken float64
	err          error
	calls        int
	content      string
}

// NewMockProvider creates a new mock provider with the given ID.
func NewMockProvider(id providers.ProviderID) *MockProvider {
	return &MockProvider{
		id:       id,
		features: providers.Features{Streaming: true, SystemPrompt: true},
		content:  "mock response",
	}
}

// WithCostPerToken sets the price of every prompt and completion token.
func (m *MockProvider) WithCostPerToken(cost float64) *MockProvider {
	m.costPerToken = cost
	return m
}

// WithFeatures replaces the declared features.
func (m *MockProvider) WithFeatures(f providers.Features) *MockProvider {
	m.features = f
	return m
}

// LocalAndFree marks the provider local and free.
func (m *MockProvider) LocalAndFree() *MockProvider {
	m.features.LocalAndFree = true
	return m
}

// SetError makes subsequent calls fail with err. Nil restores success.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Calls returns the number of Generate and GenerateStream calls.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ID returns the provider ID.
func (m *MockProvider) ID() providers.ProviderID {
	return m.id
}

// Features returns the declared features.
func (m *MockProvider) Features() providers.Features {
	return m.features
}

// ValidateRequest checks the request against the declared features.
func (m *MockProvider) ValidateRequest(req *providers.GenerationRequest) error {
	return m.features.CheckRequest(req)
}

// EstimateCost prices every token at the configured rate.
func (m *MockProvider) EstimateCost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens+completionTokens) * m.costPerToken
}

// HealthCheck fails while an error is scripted.
func (m *MockProvider) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return fmt.Errorf("provider %s is unhealthy: %w", m.id, m.err)
	}
	return nil
}

// Generate returns a fixed response or the scripted error.
func (m *MockProvider) Generate(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResponse, error) {
	m.mu.Lock()
	m.calls++
	err := m.err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &providers.GenerationResponse{
		ID:           fmt.Sprintf("%s-%d", m.id, m.Calls()),
		Provider:     m.id,
		Model:        "mock",
		Content:      m.content,
		FinishReason: "stop",
		Usage:        providers.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

// GenerateStream returns the fixed response as a single chunk.
func (m *MockProvider) GenerateStream(ctx context.Context, req *providers.GenerationRequest) (<-chan *providers.StreamChunk, error) {
	resp, err := m.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	ch := make(chan *providers.StreamChunk, 2)
	usage := resp.Usage
	ch <- &providers.StreamChunk{Delta: resp.Content}
	ch <- &providers.StreamChunk{FinishReason: resp.FinishReason, Usage: &usage}
	close(ch)
	return ch, nil
}

var _ providers.Provider = (*MockProvider)(nil)
