package routing

import (
	"unicode/utf8"

	"mercator-hq/conductor/pkg/providers"
)

// CharsPerToken is the provider-agnostic heuristic used for every token
// estimate in this package.
const CharsPerToken = 4

// TokenEstimate is the expected token budget of a request.
type TokenEstimate struct {
	Prompt     int
	Completion int
}

// Total returns Prompt + Completion.
func (e TokenEstimate) Total() int {
	return e.Prompt + e.Completion
}

// EstimateTokens returns ceil(chars/4) prompt tokens and either MaxTokens or
// the same prompt estimate as completion tokens. Characters are counted as
// runes. A nil request estimates to zero.
func EstimateTokens(req *providers.GenerationRequest) TokenEstimate {
	if req == nil {
		return TokenEstimate{}
	}
	chars := utf8.RuneCountInString(req.Prompt)
	prompt := (chars + CharsPerToken - 1) / CharsPerToken
	completion := req.MaxTokens
	if completion <= 0 {
		completion = prompt
	}
	return TokenEstimate{Prompt: prompt, Completion: completion}
}

// EstimateProviderCost estimates the USD cost of a token budget on a
// provider. It prefers the provider's declared pricing; without a
// capability object it falls back to the observed average cost per token.
// The boolean is false when neither is available.
func EstimateProviderCost(p providers.Provider, m *ProviderMetrics, est TokenEstimate) (float64, bool) {
	if p != nil {
		return p.EstimateCost(est.Prompt, est.Completion), true
	}
	if m != nil && m.TotalTokens > 0 {
		return m.AvgCostPerToken * float64(est.Total()), true
	}
	return 0, false
}
