package providers

import "strings"

// GenerationRequest is the provider-agnostic request descriptor handed to
// the router and then to the chosen provider.
type GenerationRequest struct {
	// Prompt is the user prompt text. Required.
	Prompt string `json:"prompt"`

	// Model optionally names a model (e.g., "llama3", "gpt-4o-mini").
	// CapabilityBased routing uses it to look up a preferred provider.
	Model string `json:"model,omitempty"`

	// SystemPrompt is an optional system instruction.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness. Nil means provider default.
	Temperature *float64 `json:"temperature,omitempty"`

	// StopSequences halt generation when produced.
	StopSequences []string `json:"stop_sequences,omitempty"`

	// JSONMode asks the provider for a JSON-only response.
	JSONMode bool `json:"json_mode,omitempty"`

	// Metadata carries caller context that is never sent to the provider.
	Metadata map[string]string `json:"-"`
}

// TokenUsage tracks token consumption for a completed request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationResponse is the normalized response returned by a provider.
type GenerationResponse struct {
	// ID is the provider's response identifier.
	ID string `json:"id"`

	// Provider is the backend that produced the response.
	Provider ProviderID `json:"provider"`

	// Model is the model that generated the response.
	Model string `json:"model"`

	// Content is the generated text.
	Content string `json:"content"`

	// FinishReason indicates why generation stopped (stop, length, content_filter).
	FinishReason string `json:"finish_reason"`

	// Usage contains token consumption. Providers that cannot report usage
	// leave it zero and callers fall back to estimates.
	Usage TokenUsage `json:"usage"`
}

// StreamChunk is one increment of a streaming response.
type StreamChunk struct {
	// Delta is the incremental content in this chunk.
	Delta string `json:"delta"`

	// FinishReason is set on the final chunk.
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage is included on the final chunk when the provider reports it.
	Usage *TokenUsage `json:"usage,omitempty"`

	// Error is set if the stream failed.
	Error error `json:"-"`
}

// Features are the capability flags a provider declares.
type Features struct {
	Streaming       bool `json:"streaming" yaml:"streaming"`
	SystemPrompt    bool `json:"system_prompt" yaml:"system_prompt"`
	Vision          bool `json:"vision" yaml:"vision"`
	FunctionCalling bool `json:"function_calling" yaml:"function_calling"`
	JSONMode        bool `json:"json_mode" yaml:"json_mode"`

	// LocalAndFree marks a backend that runs locally at no per-token cost.
	// Smart scoring and fallback ordering give this class a bonus.
	LocalAndFree bool `json:"local_and_free" yaml:"local_and_free"`
}

// String renders the enabled flags, e.g. "streaming,system_prompt".
func (f Features) String() string {
	var parts []string
	if f.Streaming {
		parts = append(parts, "streaming")
	}
	if f.SystemPrompt {
		parts = append(parts, "system_prompt")
	}
	if f.Vision {
		parts = append(parts, "vision")
	}
	if f.FunctionCalling {
		parts = append(parts, "function_calling")
	}
	if f.JSONMode {
		parts = append(parts, "json_mode")
	}
	if f.LocalAndFree {
		parts = append(parts, "local_and_free")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// CheckRequest validates a request against declared features. It is the
// shared part of ValidateRequest that provider implementations can reuse.
func (f Features) CheckRequest(req *GenerationRequest) error {
	if err := CheckGenerationRequest(req); err != nil {
		return err
	}
	if req.SystemPrompt != "" && !f.SystemPrompt {
		return &ValidationError{Field: "system_prompt", Message: "provider does not support system prompts"}
	}
	if req.JSONMode && !f.JSONMode {
		return &ValidationError{Field: "json_mode", Message: "provider does not support JSON mode"}
	}
	return nil
}

// CheckGenerationRequest validates the parts of a request that no provider
// could serve differently: presence, prompt and parameter ranges.
func CheckGenerationRequest(req *GenerationRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Message: "request cannot be nil"}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return &ValidationError{Field: "prompt", Message: "prompt cannot be empty"}
	}
	if req.MaxTokens < 0 {
		return &ValidationError{Field: "max_tokens", Message: "must be non-negative"}
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return &ValidationError{Field: "temperature", Message: "must be between 0 and 2"}
	}
	return nil
}
