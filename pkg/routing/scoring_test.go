package routing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func ptr(v float64) *float64 { return &v }

func TestSmartScore(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInput
		want float64
	}{
		{
			name: "no metrics",
			in:   ScoreInput{},
			want: 100,
		},
		{
			name: "no metrics keeps bonuses",
			in:   ScoreInput{LocalAndFree: true, Priority: PriorityLow, Preferred: true},
			want: 100 + 30 + 15,
		},
		{
			name: "perfect free provider",
			in: ScoreInput{
				Metrics:   &ProviderMetrics{SuccessRate: 1, AvgLatencyMs: 0},
				CostKnown: true,
			},
			want: 100 + 50 + 30 + 20,
		},
		{
			name: "unknown cost earns no cost term",
			in: ScoreInput{
				Metrics: &ProviderMetrics{SuccessRate: 1, AvgLatencyMs: 0},
			},
			want: 100 + 50 + 30,
		},
		{
			name: "unknown cost skips threshold penalty",
			in: ScoreInput{
				Metrics:          &ProviderMetrics{SuccessRate: 1, AvgLatencyMs: 0},
				EstimatedCost:    5,
				MaxCostThreshold: ptr(0.1),
			},
			want: 100 + 50 + 30,
		},
		{
			name: "over cost threshold",
			in: ScoreInput{
				Metrics:          &ProviderMetrics{SuccessRate: 1, AvgLatencyMs: 1000},
				EstimatedCost:    0.2,
				CostKnown:        true,
				MaxCostThreshold: ptr(0.1),
			},
			want: 100 + 50 + 15 - 50 + 20.0/21,
		},
		{
			name: "cost equal to threshold is not penalized",
			in: ScoreInput{
				Metrics:          &ProviderMetrics{SuccessRate: 1, AvgLatencyMs: 1000},
				EstimatedCost:    0.1,
				CostKnown:        true,
				MaxCostThreshold: ptr(0.1),
			},
			want: 100 + 50 + 15 + 20.0/11,
		},
		{
			name: "over latency threshold",
			in: ScoreInput{
				Metrics:             &ProviderMetrics{SuccessRate: 0.5, AvgLatencyMs: 3000},
				CostKnown:           true,
				MaxLatencyThreshold: 2 * time.Second,
			},
			want: 100 + 25 + 7.5 + 20 - 25,
		},
		{
			name: "priority bonus ignored for paid providers",
			in: ScoreInput{
				Metrics:  &ProviderMetrics{SuccessRate: 1},
				Priority: PriorityCritical,
			},
			want: 100 + 50 + 30,
		},
		{
			name: "critical local provider",
			in: ScoreInput{
				Metrics:      &ProviderMetrics{SuccessRate: 1},
				LocalAndFree: true,
				Priority:     PriorityCritical,
			},
			want: 100 + 50 + 30 + 20,
		},
		{
			name: "high local provider",
			in:   ScoreInput{LocalAndFree: true, Priority: PriorityHigh},
			want: 110,
		},
		{
			name: "normal local provider",
			in:   ScoreInput{LocalAndFree: true, Priority: PriorityNormal},
			want: 100,
		},
		{
			name: "preferred bonus",
			in:   ScoreInput{Preferred: true},
			want: 115,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SmartScore(tt.in); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SmartScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSmartScore_ReliabilityBeatsSpeed(t *testing.T) {
	threshold := 0.10
	a := SmartScore(ScoreInput{
		Metrics:          &ProviderMetrics{SuccessRate: 0.9, AvgLatencyMs: 200},
		EstimatedCost:    0,
		CostKnown:        true,
		MaxCostThreshold: &threshold,
	})
	b := SmartScore(ScoreInput{
		Metrics:          &ProviderMetrics{SuccessRate: 0.6, AvgLatencyMs: 50},
		EstimatedCost:    1000 * 0.00002,
		CostKnown:        true,
		MaxCostThreshold: &threshold,
	})

	if math.Abs(a-190) > 1e-9 {
		t.Errorf("score(A) = %v, want 190", a)
	}
	if math.Abs(b-(100+30+30/1.05+20.0/3)) > 1e-9 {
		t.Errorf("score(B) = %v", b)
	}
	if a <= b {
		t.Errorf("score(A) = %v should beat score(B) = %v", a, b)
	}
}

func TestFallbackScore(t *testing.T) {
	tests := []struct {
		name  string
		m     *ProviderMetrics
		local bool
		want  float64
	}{
		{"no metrics", nil, false, 0},
		{"no metrics local", nil, true, 25},
		{"perfect", &ProviderMetrics{SuccessRate: 1}, false, 150},
		{"two failures", &ProviderMetrics{SuccessRate: 0.5, ConsecutiveFailures: 2}, false, 50 + 50.0/3},
		{"local perfect", &ProviderMetrics{SuccessRate: 1}, true, 175},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FallbackScore(tt.m, tt.local); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FallbackScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func drawScoreInput(rt *rapid.T) ScoreInput {
	in := ScoreInput{
		Metrics: &ProviderMetrics{
			SuccessRate:  rapid.Float64Range(0, 1).Draw(rt, "success_rate"),
			AvgLatencyMs: rapid.Float64Range(0, 60_000).Draw(rt, "latency"),
		},
		EstimatedCost: rapid.Float64Range(0, 5).Draw(rt, "cost"),
		CostKnown:     rapid.Bool().Draw(rt, "cost_known"),
		LocalAndFree:  rapid.Bool().Draw(rt, "local"),
		Preferred:     rapid.Bool().Draw(rt, "preferred"),
		Priority:      Priority(rapid.IntRange(0, 3).Draw(rt, "priority")),
	}
	if rapid.Bool().Draw(rt, "has_cost_threshold") {
		in.MaxCostThreshold = ptr(rapid.Float64Range(0, 1).Draw(rt, "cost_threshold"))
	}
	if rapid.Bool().Draw(rt, "has_latency_threshold") {
		in.MaxLatencyThreshold = time.Duration(rapid.IntRange(1, 60_000).Draw(rt, "latency_threshold")) * time.Millisecond
	}
	return in
}

func TestProperty_SmartScore_MonotonicInSuccessRate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := drawScoreInput(rt)
		lo := *in.Metrics
		hi := lo
		hi.SuccessRate = rapid.Float64Range(lo.SuccessRate, 1).Draw(rt, "higher_success_rate")

		low, high := in, in
		low.Metrics, high.Metrics = &lo, &hi
		require.GreaterOrEqual(rt, SmartScore(high), SmartScore(low))
	})
}

func TestProperty_SmartScore_NonIncreasingInLatency(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := drawScoreInput(rt)
		fast := *in.Metrics
		slow := fast
		slow.AvgLatencyMs = rapid.Float64Range(fast.AvgLatencyMs, 120_000).Draw(rt, "slower_latency")

		a, b := in, in
		a.Metrics, b.Metrics = &fast, &slow
		require.LessOrEqual(rt, SmartScore(b), SmartScore(a))
	})
}

func TestProperty_SmartScore_Bounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		score := SmartScore(drawScoreInput(rt))
		require.LessOrEqual(rt, score, 100.0+50+30+20+30+15)
		require.GreaterOrEqual(rt, score, 100.0-50-25)
	})
}
