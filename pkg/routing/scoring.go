package routing

import (
	"math"
	"time"
)

// Smart score weights.
const (
	SmartBaseScore          = 100.0
	ReliabilityWeight       = 50.0
	SpeedWeight             = 30.0
	CostWeight              = 20.0
	CostThresholdPenalty    = -50.0
	LatencyThresholdPenalty = -25.0
	PreferredProviderBonus  = 15.0
)

// Fallback score weights.
const (
	FallbackReliabilityWeight = 100.0
	FallbackStreakWeight      = 50.0
	FallbackLocalBonus        = 25.0
)

// PriorityBonus returns the smart score adjustment applied to local-and-free
// providers for a request priority.
func PriorityBonus(p Priority) float64 {
	switch p {
	case PriorityCritical:
		return 20
	case PriorityHigh:
		return 10
	case PriorityLow:
		return 30
	default:
		return 0
	}
}

// ScoreInput is everything the smart score depends on for one provider.
type ScoreInput struct {
	// Metrics is nil when the provider has no record.
	Metrics *ProviderMetrics

	// EstimatedCost is the request cost on this provider; CostKnown is false
	// when the provider could not be priced.
	EstimatedCost float64
	CostKnown     bool

	LocalAndFree bool
	Preferred    bool
	Priority     Priority

	MaxCostThreshold    *float64
	MaxLatencyThreshold time.Duration
}

// SmartScore computes the desirability of a provider. It is a pure function
// of its input.
func SmartScore(in ScoreInput) float64 {
	score := SmartBaseScore

	if m := in.Metrics; m != nil {
		score += m.SuccessRate * ReliabilityWeight
		score += math.Min(SpeedWeight, SpeedWeight/(1+m.AvgLatencyMs/1000))

		if in.CostKnown {
			if in.MaxCostThreshold != nil && in.EstimatedCost > *in.MaxCostThreshold {
				score += CostThresholdPenalty
			}
			score += math.Min(CostWeight, CostWeight/(1+in.EstimatedCost*100))
		}

		if in.MaxLatencyThreshold > 0 && m.AvgLatencyMs > durationMs(in.MaxLatencyThreshold) {
			score += LatencyThresholdPenalty
		}
	}

	if in.LocalAndFree {
		score += PriorityBonus(in.Priority)
	}
	if in.Preferred {
		score += PreferredProviderBonus
	}
	return score
}

// FallbackScore orders non-primary candidates: reliability plus a bonus
// that shrinks with the failure streak. Without metrics both terms are zero.
func FallbackScore(m *ProviderMetrics, localAndFree bool) float64 {
	var score float64
	if m != nil {
		score = m.SuccessRate*FallbackReliabilityWeight +
			FallbackStreakWeight/float64(1+m.ConsecutiveFailures)
	}
	if localAndFree {
		score += FallbackLocalBonus
	}
	return score
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
