package providers

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestFeatures_CheckRequest(t *testing.T) {
	hot := 2.5
	tests := []struct {
		name      string
		features  Features
		req       *GenerationRequest
		wantField string
	}{
		{name: "nil request", req: nil, wantField: "request"},
		{name: "empty prompt", req: &GenerationRequest{Prompt: "   "}, wantField: "prompt"},
		{name: "negative max tokens", req: &GenerationRequest{Prompt: "hi", MaxTokens: -1}, wantField: "max_tokens"},
		{name: "temperature out of range", req: &GenerationRequest{Prompt: "hi", Temperature: &hot}, wantField: "temperature"},
		{name: "system prompt unsupported", req: &GenerationRequest{Prompt: "hi", SystemPrompt: "be brief"}, wantField: "system_prompt"},
		{
			name:     "system prompt supported",
			features: Features{SystemPrompt: true},
			req:      &GenerationRequest{Prompt: "hi", SystemPrompt: "be brief"},
		},
		{name: "json mode unsupported", req: &GenerationRequest{Prompt: "hi", JSONMode: true}, wantField: "json_mode"},
		{name: "valid", req: &GenerationRequest{Prompt: "hi", MaxTokens: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.features.CheckRequest(tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, vErr.Field)
			}
		})
	}
}

func TestCheckGenerationRequest_IgnoresFeatures(t *testing.T) {
	req := &GenerationRequest{Prompt: "hi", SystemPrompt: "be brief", JSONMode: true}
	if err := CheckGenerationRequest(req); err != nil {
		t.Errorf("feature requirements should not fail request-wide checks: %v", err)
	}
	if err := CheckGenerationRequest(&GenerationRequest{}); err == nil {
		t.Error("expected empty prompt to fail")
	}
}

func TestFeatures_String(t *testing.T) {
	if got := (Features{}).String(); got != "none" {
		t.Errorf("expected %q, got %q", "none", got)
	}
	f := Features{Streaming: true, LocalAndFree: true}
	if got := f.String(); got != "streaming,local_and_free" {
		t.Errorf("unexpected features string %q", got)
	}
}

type stubProvider struct {
	id ProviderID
}

func (s *stubProvider) ID() ProviderID { return s.id }
func (s *stubProvider) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	return &GenerationResponse{Provider: s.id}, nil
}
func (s *stubProvider) GenerateStream(ctx context.Context, req *GenerationRequest) (<-chan *StreamChunk, error) {
	return nil, errors.New("not supported")
}
func (s *stubProvider) ValidateRequest(req *GenerationRequest) error { return nil }
func (s *stubProvider) EstimateCost(promptTokens, completionTokens int) float64 { return 0 }
func (s *stubProvider) HealthCheck(ctx context.Context) error { return nil }
func (s *stubProvider) Features() Features { return Features{} }

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(nil); err == nil {
		t.Error("expected error registering nil provider")
	}
	if err := r.Register(&stubProvider{id: ""}); err == nil {
		t.Error("expected error registering provider with empty ID")
	}

	for _, id := range []ProviderID{"ollama", "claude", "openai"} {
		if err := r.Register(&stubProvider{id: id}); err != nil {
			t.Fatalf("Register(%s) failed: %v", id, err)
		}
	}

	if r.Len() != 3 {
		t.Errorf("expected 3 providers, got %d", r.Len())
	}

	ids := r.IDs()
	want := []ProviderID{"claude", "ollama", "openai"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs()[%d] = %s, want %s", i, ids[i], want[i])
		}
	}

	if _, ok := r.Get("claude"); !ok {
		t.Error("expected claude to be registered")
	}
	if !r.Unregister("claude") {
		t.Error("expected Unregister to report removal")
	}
	if r.Unregister("claude") {
		t.Error("expected second Unregister to report absence")
	}
	if _, ok := r.Get("claude"); ok {
		t.Error("expected claude to be gone")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(&stubProvider{id: "shared"})
		}()
		go func() {
			defer wg.Done()
			r.Get("shared")
			r.IDs()
		}()
	}
	wg.Wait()

	if r.Len() != 1 {
		t.Errorf("expected 1 provider, got %d", r.Len())
	}
}
