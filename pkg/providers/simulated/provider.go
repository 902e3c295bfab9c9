// Package simulated provides a synthetic backend that implements the full
// providers.Provider contract without any network I/O. Latency, failure
// rate, pricing and feature flags are declared in configuration, which makes
// it useful for exercising routing decisions from the CLI and in tests.
package simulated

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/conductor/pkg/providers"
)

// DefaultCompletionTokens is used when a request does not set MaxTokens.
const DefaultCompletionTokens = 128

// Config declares the behavior of a simulated provider.
type Config struct {
	// ID is the provider identity. Required.
	ID providers.ProviderID

	// Model is reported in responses. Defaults to "<id>-sim".
	Model string

	// Features are the declared capability flags.
	Features providers.Features

	// PromptCostPer1K and CompletionCostPer1K are USD prices per 1000 tokens.
	PromptCostPer1K     float64
	CompletionCostPer1K float64

	// Latency is the mean simulated response time; Jitter adds a uniform
	// random offset in [-Jitter, +Jitter].
	Latency time.Duration
	Jitter  time.Duration

	// FailureRate is the probability in [0,1] that a call fails with an
	// UnavailableError.
	FailureRate float64

	// Seed makes the random sequence reproducible. Zero seeds from the clock.
	Seed int64
}

// Provider is a simulated backend.
type Provider struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand

	unhealthy atomic.Bool
	calls     atomic.Int64
}

// New creates a simulated provider from cfg.
func New(cfg Config) (*Provider, error) {
	if cfg.ID == "" {
		return nil, &providers.ValidationError{Field: "id", Message: "provider ID is required"}
	}
	if cfg.FailureRate < 0 || cfg.FailureRate > 1 {
		return nil, &providers.ValidationError{Field: "failure_rate", Message: "must be between 0 and 1"}
	}
	if cfg.PromptCostPer1K < 0 || cfg.CompletionCostPer1K < 0 {
		return nil, &providers.ValidationError{Field: "cost_per_1k", Message: "must be non-negative"}
	}
	if cfg.Model == "" {
		cfg.Model = string(cfg.ID) + "-sim"
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Provider{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// ID returns the provider identity.
func (p *Provider) ID() providers.ProviderID {
	return p.cfg.ID
}

// Features returns the declared feature flags.
func (p *Provider) Features() providers.Features {
	return p.cfg.Features
}

// Calls returns how many Generate/GenerateStream calls were made.
func (p *Provider) Calls() int64 {
	return p.calls.Load()
}

// SetHealthy toggles the result of HealthCheck and makes every call fail
// while unhealthy.
func (p *Provider) SetHealthy(healthy bool) {
	p.unhealthy.Store(!healthy)
}

// ValidateRequest checks the request against the declared features.
func (p *Provider) ValidateRequest(req *providers.GenerationRequest) error {
	return p.cfg.Features.CheckRequest(req)
}

// EstimateCost prices a token budget with the configured per-1K rates.
func (p *Provider) EstimateCost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)/1000*p.cfg.PromptCostPer1K +
		float64(completionTokens)/1000*p.cfg.CompletionCostPer1K
}

// HealthCheck reports the simulated health state.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.unhealthy.Load() {
		return &providers.UnavailableError{Provider: p.cfg.ID, Cause: fmt.Errorf("marked unhealthy")}
	}
	return nil
}

// Generate waits for the simulated latency and returns a synthetic response,
// or fails according to the configured failure rate.
func (p *Provider) Generate(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResponse, error) {
	if err := p.ValidateRequest(req); err != nil {
		return nil, err
	}
	p.calls.Add(1)

	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if err := p.roll(); err != nil {
		return nil, err
	}

	usage := p.usage(req)
	return &providers.GenerationResponse{
		ID:           uuid.NewString(),
		Provider:     p.cfg.ID,
		Model:        p.cfg.Model,
		Content:      fmt.Sprintf("simulated response from %s (%d tokens)", p.cfg.ID, usage.CompletionTokens),
		FinishReason: "stop",
		Usage:        usage,
	}, nil
}

// GenerateStream streams the synthetic response word by word.
func (p *Provider) GenerateStream(ctx context.Context, req *providers.GenerationRequest) (<-chan *providers.StreamChunk, error) {
	if !p.cfg.Features.Streaming {
		return nil, &providers.ValidationError{Field: "stream", Message: "provider does not support streaming"}
	}
	resp, err := p.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(resp.Content)
	ch := make(chan *providers.StreamChunk, len(words)+1)
	go func() {
		defer close(ch)
		for i, w := range words {
			if ctx.Err() != nil {
				ch <- &providers.StreamChunk{Error: &providers.StreamError{
					Provider: p.cfg.ID, Message: "stream interrupted", Cause: ctx.Err(),
				}}
				return
			}
			delta := w
			if i > 0 {
				delta = " " + w
			}
			ch <- &providers.StreamChunk{Delta: delta}
		}
		usage := resp.Usage
		ch <- &providers.StreamChunk{FinishReason: resp.FinishReason, Usage: &usage}
	}()
	return ch, nil
}

func (p *Provider) wait(ctx context.Context) error {
	d := p.cfg.Latency
	if p.cfg.Jitter > 0 {
		p.mu.Lock()
		offset := time.Duration(p.rng.Int63n(int64(2*p.cfg.Jitter)+1)) - p.cfg.Jitter
		p.mu.Unlock()
		d += offset
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &providers.TimeoutError{Provider: p.cfg.ID, Timeout: d}
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Provider) roll() error {
	if p.unhealthy.Load() {
		return &providers.UnavailableError{Provider: p.cfg.ID, Cause: fmt.Errorf("marked unhealthy")}
	}
	if p.cfg.FailureRate <= 0 {
		return nil
	}
	p.mu.Lock()
	r := p.rng.Float64()
	p.mu.Unlock()
	if r < p.cfg.FailureRate {
		return &providers.UnavailableError{Provider: p.cfg.ID, Cause: fmt.Errorf("simulated failure")}
	}
	return nil
}

func (p *Provider) usage(req *providers.GenerationRequest) providers.TokenUsage {
	prompt := (len([]rune(req.Prompt)) + 3) / 4
	completion := req.MaxTokens
	if completion == 0 {
		completion = DefaultCompletionTokens
	}
	return providers.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}
