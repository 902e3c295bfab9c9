package strategies

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"mercator-hq/conductor/internal/testutil"
	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
)

type fixture struct {
	metrics map[providers.ProviderID]routing.ProviderMetrics
	reg     *providers.Registry
	cfg     *routing.Config
}

func newFixture() *fixture {
	return &fixture{
		metrics: make(map[providers.ProviderID]routing.ProviderMetrics),
		reg:     providers.NewRegistry(),
		cfg:     routing.DefaultConfig(),
	}
}

func (f *fixture) register(p providers.Provider) *fixture {
	if err := f.reg.Register(p); err != nil {
		panic(err)
	}
	return f
}

func (f *fixture) selection(req *providers.GenerationRequest, available, candidates []providers.ProviderID) *routing.Selection {
	return &routing.Selection{
		Request:    req,
		Available:  available,
		Candidates: candidates,
		Config:     f.cfg,
		Metrics: func(id providers.ProviderID) (routing.ProviderMetrics, bool) {
			m, ok := f.metrics[id]
			return m, ok
		},
		Providers: f.reg.Get,
	}
}

func ids(names ...string) []providers.ProviderID {
	out := make([]providers.ProviderID, len(names))
	for i, n := range names {
		out[i] = providers.ProviderID(n)
	}
	return out
}

func TestNew(t *testing.T) {
	for _, kind := range routing.StrategyKinds() {
		t.Run(string(kind), func(t *testing.T) {
			s, err := New(routing.Strategy{Kind: kind, Provider: "p"})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if s.GetName() != string(kind) {
				t.Errorf("GetName() = %q, want %q", s.GetName(), kind)
			}
		})
	}

	_, err := New(routing.Strategy{Kind: "sticky"})
	if !errors.Is(err, routing.ErrInvalidStrategy) {
		t.Errorf("New(sticky) error = %v, want ErrInvalidStrategy", err)
	}
}

func TestFixedStrategy(t *testing.T) {
	f := newFixture()
	f.cfg.BlockedProviders = ids("banned")
	s := NewFixedStrategy("x")

	tests := []struct {
		name       string
		available  []providers.ProviderID
		candidates []providers.ProviderID
		reason     string
	}{
		{"selectable", ids("a", "x"), ids("a", "x"), ""},
		{"not offered", ids("a", "b"), ids("a", "b"), routing.ReasonNotAvailable},
		{"unhealthy", ids("a", "x"), ids("a"), routing.ReasonUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SelectProvider(f.selection(nil, tt.available, tt.candidates))
			if tt.reason == "" {
				if err != nil || got != "x" {
					t.Fatalf("SelectProvider() = %q, %v; want x", got, err)
				}
				return
			}
			var fe *routing.FixedProviderUnavailableError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want *FixedProviderUnavailableError", err)
			}
			if fe.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", fe.Reason, tt.reason)
			}
			if !errors.Is(err, routing.ErrInvalidConfiguration) {
				t.Error("error should match ErrInvalidConfiguration")
			}
		})
	}

	t.Run("blocked", func(t *testing.T) {
		blocked := NewFixedStrategy("banned")
		_, err := blocked.SelectProvider(f.selection(nil, ids("a", "banned"), ids("a")))
		var fe *routing.FixedProviderUnavailableError
		if !errors.As(err, &fe) || fe.Reason != routing.ReasonBlocked {
			t.Errorf("error = %v, want blocked", err)
		}
	})
}

func TestRoundRobinStrategy_VisitsEachOnce(t *testing.T) {
	f := newFixture()
	candidates := ids("a", "b", "c", "d")
	s := NewRoundRobinStrategy()

	var got []providers.ProviderID
	for range candidates {
		id, err := s.SelectProvider(f.selection(nil, candidates, candidates))
		if err != nil {
			t.Fatalf("SelectProvider() error = %v", err)
		}
		got = append(got, id)
	}
	require.Equal(t, candidates, got)
}

func TestRoundRobinStrategy_SingleCandidate(t *testing.T) {
	f := newFixture()
	s := NewRoundRobinStrategy()
	for i := 0; i < 2; i++ {
		id, err := s.SelectProvider(f.selection(nil, ids("x"), ids("x")))
		if err != nil || id != "x" {
			t.Fatalf("call %d: SelectProvider() = %q, %v", i, id, err)
		}
	}
	if s.Cursor() != 2 {
		t.Errorf("Cursor() = %d, want 2", s.Cursor())
	}

	s.Reset()
	if s.Cursor() != 0 {
		t.Errorf("Cursor() after Reset = %d, want 0", s.Cursor())
	}
}

func TestRoundRobinStrategy_Concurrent(t *testing.T) {
	f := newFixture()
	candidates := ids("a", "b", "c")
	s := NewRoundRobinStrategy()

	const goroutines, perGoroutine = 30, 100
	var (
		mu     sync.Mutex
		counts = make(map[providers.ProviderID]int)
		wg     sync.WaitGroup
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make(map[providers.ProviderID]int)
			for j := 0; j < perGoroutine; j++ {
				id, err := s.SelectProvider(f.selection(nil, candidates, candidates))
				if err != nil {
					t.Error(err)
					return
				}
				local[id]++
			}
			mu.Lock()
			for id, n := range local {
				counts[id] += n
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, id := range candidates {
		if counts[id] != goroutines*perGoroutine/len(candidates) {
			t.Errorf("provider %s selected %d times, want %d", id, counts[id], goroutines*perGoroutine/len(candidates))
		}
	}
}

func TestCostOptimalStrategy(t *testing.T) {
	f := newFixture().
		register(testutil.NewMockProvider("pricey").WithCostPerToken(0.001)).
		register(testutil.NewMockProvider("cheap").WithCostPerToken(0.0001)).
		register(testutil.NewMockProvider("free")).
		register(testutil.NewMockProvider("also-free"))
	req := &providers.GenerationRequest{Prompt: "summarize this article"}
	s := NewCostOptimalStrategy()

	tests := []struct {
		name       string
		candidates []providers.ProviderID
		want       providers.ProviderID
	}{
		{"lowest cost", ids("pricey", "cheap"), "cheap"},
		{"free wins", ids("pricey", "free", "cheap"), "free"},
		{"ties resolve to input order", ids("also-free", "free"), "also-free"},
		{"unknown cost is never preferred", ids("unpriced", "pricey"), "pricey"},
		{"all unknown picks first", ids("u1", "u2"), "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SelectProvider(f.selection(req, tt.candidates, tt.candidates))
			if err != nil || got != tt.want {
				t.Errorf("SelectProvider() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestFastestFirstStrategy(t *testing.T) {
	f := newFixture()
	f.metrics["slow"] = routing.ProviderMetrics{SuccessRate: 1, AvgLatencyMs: 900}
	f.metrics["fast"] = routing.ProviderMetrics{SuccessRate: 1, AvgLatencyMs: 40}
	s := NewFastestFirstStrategy()

	got, _ := s.SelectProvider(f.selection(nil, ids("slow", "fast"), ids("slow", "fast")))
	if got != "fast" {
		t.Errorf("SelectProvider() = %q, want fast", got)
	}

	got, _ = s.SelectProvider(f.selection(nil, ids("unseen", "slow"), ids("unseen", "slow")))
	if got != "slow" {
		t.Errorf("provider without metrics should not be preferred, got %q", got)
	}
}

func TestHighestReliabilityStrategy(t *testing.T) {
	f := newFixture()
	f.metrics["flaky"] = routing.ProviderMetrics{SuccessRate: 0.6}
	f.metrics["solid"] = routing.ProviderMetrics{SuccessRate: 0.99}
	s := NewHighestReliabilityStrategy()

	got, _ := s.SelectProvider(f.selection(nil, ids("flaky", "solid"), ids("flaky", "solid")))
	if got != "solid" {
		t.Errorf("SelectProvider() = %q, want solid", got)
	}

	got, _ = s.SelectProvider(f.selection(nil, ids("unseen", "flaky"), ids("unseen", "flaky")))
	if got != "flaky" {
		t.Errorf("provider without metrics should not be preferred, got %q", got)
	}
}

func TestCapabilityBasedStrategy(t *testing.T) {
	f := newFixture()
	f.cfg.ModelPreferences = map[string]providers.ProviderID{"llama3": "ollama", "gpt-4o": "openai"}
	f.cfg.PreferredProviders = ids("anthropic", "openai")
	s := NewCapabilityBasedStrategy()

	tests := []struct {
		name       string
		model      string
		candidates []providers.ProviderID
		want       providers.ProviderID
	}{
		{"model preference", "llama3", ids("openai", "ollama"), "ollama"},
		{"model preference not a candidate", "llama3", ids("groq", "openai"), "openai"},
		{"first present preferred provider", "", ids("groq", "openai", "anthropic"), "anthropic"},
		{"unmapped model", "mistral", ids("groq", "openai"), "openai"},
		{"no preference matches", "", ids("groq", "mistral"), "groq"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &providers.GenerationRequest{Prompt: "hi", Model: tt.model}
			got, err := s.SelectProvider(f.selection(req, tt.candidates, tt.candidates))
			if err != nil || got != tt.want {
				t.Errorf("SelectProvider() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestSmartStrategy_ReliableFreeBeatsFastPaid(t *testing.T) {
	threshold := 0.10
	f := newFixture().
		register(testutil.NewMockProvider("A")).
		register(testutil.NewMockProvider("B").WithCostPerToken(0.00002))
	f.cfg.MaxCostThreshold = &threshold
	f.metrics["A"] = routing.ProviderMetrics{SuccessRate: 0.9, AvgLatencyMs: 200}
	f.metrics["B"] = routing.ProviderMetrics{SuccessRate: 0.6, AvgLatencyMs: 50}

	// 2000 chars -> 500 prompt tokens, 500 completion tokens
	req := &providers.GenerationRequest{Prompt: strings.Repeat("x", 2000)}
	sel := f.selection(req, ids("A", "B"), ids("A", "B"))
	require.Equal(t, 1000, sel.Tokens().Total())

	s := NewSmartStrategy()
	got, err := s.SelectProvider(sel)
	require.NoError(t, err)
	require.Equal(t, providers.ProviderID("A"), got)

	scores := s.Scores(sel)
	require.InDelta(t, 190.0, scores["A"], 1e-9)
	require.Less(t, scores["B"], scores["A"])

	require.Equal(t, ids("B"), routing.BuildFallbackChain(sel, got))
}

func TestSmartStrategy_PriorityFavorsLocal(t *testing.T) {
	f := newFixture().
		register(testutil.NewMockProvider("cloud")).
		register(testutil.NewMockProvider("local").LocalAndFree())
	f.metrics["cloud"] = routing.ProviderMetrics{SuccessRate: 1, AvgLatencyMs: 100}
	f.metrics["local"] = routing.ProviderMetrics{SuccessRate: 0.9, AvgLatencyMs: 100}
	s := NewSmartStrategy()

	sel := f.selection(&providers.GenerationRequest{Prompt: "hi"}, ids("cloud", "local"), ids("cloud", "local"))
	got, _ := s.SelectProvider(sel)
	if got != "cloud" {
		t.Errorf("normal priority: got %q, want cloud", got)
	}

	sel.Priority = routing.PriorityLow
	got, _ = s.SelectProvider(sel)
	if got != "local" {
		t.Errorf("low priority: got %q, want local", got)
	}
}

func TestSmartStrategy_PreferredBonus(t *testing.T) {
	f := newFixture()
	f.cfg.PreferredProviders = ids("b")
	s := NewSmartStrategy()

	got, _ := s.SelectProvider(f.selection(nil, ids("a", "b"), ids("a", "b")))
	if got != "b" {
		t.Errorf("SelectProvider() = %q, want preferred b", got)
	}

	f.cfg.PreferredProviders = nil
	got, _ = s.SelectProvider(f.selection(nil, ids("a", "b"), ids("a", "b")))
	if got != "a" {
		t.Errorf("tie should resolve to first candidate, got %q", got)
	}
}

func TestProperty_CostOptimal_PicksCheapestFirst(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		f := newFixture()
		candidates := make([]providers.ProviderID, n)
		costs := make([]float64, n)
		for i := 0; i < n; i++ {
			candidates[i] = providers.ProviderID(fmt.Sprintf("p%d", i))
			// small set of rates so ties are common
			costs[i] = float64(rapid.IntRange(0, 3).Draw(rt, "rate")) * 0.0001
			f.register(testutil.NewMockProvider(candidates[i]).WithCostPerToken(costs[i]))
		}

		got, err := NewCostOptimalStrategy().SelectProvider(
			f.selection(&providers.GenerationRequest{Prompt: "a short prompt"}, candidates, candidates))
		require.NoError(rt, err)

		best := 0
		for i := 1; i < n; i++ {
			if costs[i] < costs[best] {
				best = i
			}
		}
		require.Equal(rt, candidates[best], got)
	})
}

func TestProperty_StrategiesReturnCandidate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		pool := ids("a", "b", "c", "d", "e")
		candidates := rapid.SliceOfNDistinct(rapid.SampledFrom(pool), 1, len(pool), rapid.ID[providers.ProviderID]).Draw(rt, "candidates")

		f := newFixture()
		for _, id := range pool {
			if rapid.Bool().Draw(rt, "has_metrics") {
				f.metrics[id] = routing.ProviderMetrics{
					SuccessRate:  rapid.Float64Range(0, 1).Draw(rt, "sr"),
					AvgLatencyMs: rapid.Float64Range(0, 5000).Draw(rt, "lat"),
				}
			}
		}
		f.cfg.PreferredProviders = rapid.SliceOfN(rapid.SampledFrom(pool), 0, 3).Draw(rt, "preferred")

		kind := rapid.SampledFrom(routing.StrategyKinds()).Draw(rt, "kind")
		strategy := routing.Strategy{Kind: kind}
		if kind == routing.StrategyFixed {
			strategy.Provider = candidates[0]
		}
		s, err := New(strategy)
		require.NoError(rt, err)

		got, err := s.SelectProvider(f.selection(&providers.GenerationRequest{Prompt: "x"}, candidates, candidates))
		require.NoError(rt, err)
		require.Contains(rt, candidates, got)
	})
}
