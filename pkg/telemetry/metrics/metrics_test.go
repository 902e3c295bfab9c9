package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Namespace:               "test",
		Subsystem:               "router",
		DecisionDurationBuckets: []float64{0.0001, 0.001, 0.01},
	}
}

func TestNewCollector_Defaults(t *testing.T) {
	collector := NewCollector(&config.MetricsConfig{}, nil)

	if collector.Registry() == nil {
		t.Fatal("expected a private registry")
	}
	if !collector.Enabled() {
		t.Error("expected collector enabled when Enabled is unset")
	}
	if collector.config.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected namespace %q, got %q", config.DefaultMetricsNamespace, collector.config.Namespace)
	}
	if len(collector.config.DecisionDurationBuckets) == 0 {
		t.Error("expected default decision buckets")
	}
}

func TestCollector_OnDecision(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	result := &routing.RoutingResult{
		RequestID: "req-1",
		Providers: []providers.ProviderID{"ollama", "openai", "anthropic"},
		Strategy:  "smart",
		Priority:  routing.PriorityHigh,
		Filtered:  []providers.ProviderID{"legacy"},
	}
	collector.OnDecision(result, 200*time.Microsecond)
	collector.OnDecision(result, 300*time.Microsecond)

	if got := testutil.ToFloat64(collector.decisions.decisions.WithLabelValues("smart", "high", "ollama")); got != 2 {
		t.Errorf("expected 2 decisions, got %v", got)
	}
	if got := testutil.ToFloat64(collector.decisions.filtered.WithLabelValues("smart")); got != 2 {
		t.Errorf("expected 2 filtered providers, got %v", got)
	}
	if got := testutil.CollectAndCount(collector.decisions.duration); got != 1 {
		t.Errorf("expected 1 duration series, got %d", got)
	}
	if got := testutil.CollectAndCount(collector.decisions.fallbacks); got != 1 {
		t.Errorf("expected 1 fallback series, got %d", got)
	}
}

func TestCollector_OnRoutingError(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.OnRoutingError("smart", &routing.NoHealthyProvidersError{Candidates: []providers.ProviderID{"a"}})
	collector.OnRoutingError("smart", &routing.NoHealthyProvidersError{})
	collector.OnRoutingError("fixed(x)", context.Canceled)

	tests := []struct {
		strategy string
		kind     string
		want     float64
	}{
		{"smart", "no_healthy_providers", 1},
		{"smart", "no_candidates", 1},
		{"fixed(x)", "context", 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(collector.decisions.errors.WithLabelValues(tt.strategy, tt.kind)); got != tt.want {
			t.Errorf("errors{%s,%s} = %v, want %v", tt.strategy, tt.kind, got, tt.want)
		}
	}
}

func TestCollector_OnOutcome(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	m := routing.ProviderMetrics{
		AvgLatencyMs:        120,
		SuccessRate:         0.95,
		TotalTokens:         300,
		TotalCost:           0.02,
		ConsecutiveFailures: 0,
	}
	collector.OnOutcome("openai", true, m)
	m.ConsecutiveFailures = 1
	collector.OnOutcome("openai", false, m)

	pm := collector.providers
	if got := testutil.ToFloat64(pm.outcomes.WithLabelValues("openai", "success")); got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(pm.outcomes.WithLabelValues("openai", "failure")); got != 1 {
		t.Errorf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(pm.avgLatency.WithLabelValues("openai")); got != 120 {
		t.Errorf("expected latency 120, got %v", got)
	}
	if got := testutil.ToFloat64(pm.consecutiveFailures.WithLabelValues("openai")); got != 1 {
		t.Errorf("expected 1 consecutive failure, got %v", got)
	}
	if got := testutil.ToFloat64(pm.tokens.WithLabelValues("openai")); got != 300 {
		t.Errorf("expected 300 tokens, got %v", got)
	}
}

func TestCollector_OnHealthChange(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.OnHealthChange("openai", false)
	if got := testutil.ToFloat64(collector.providers.health.WithLabelValues("openai")); got != 0 {
		t.Errorf("expected unhealthy (0), got %v", got)
	}

	collector.OnHealthChange("openai", true)
	if got := testutil.ToFloat64(collector.providers.health.WithLabelValues("openai")); got != 1 {
		t.Errorf("expected healthy (1), got %v", got)
	}
}

func TestCollector_RecordProviderError(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordProviderError("openai", "rate_limit")
	collector.RecordProviderError("openai", "rate_limit")
	collector.RecordProviderError("", "timeout")

	if got := testutil.ToFloat64(collector.providers.errors.WithLabelValues("openai", "rate_limit")); got != 2 {
		t.Errorf("expected 2 rate limit errors, got %v", got)
	}
	if got := testutil.ToFloat64(collector.providers.errors.WithLabelValues("none", "timeout")); got != 1 {
		t.Errorf("expected empty provider recorded as none, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	disabled := false
	cfg.Enabled = &disabled
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.OnDecision(&routing.RoutingResult{Providers: []providers.ProviderID{"a"}, Strategy: "smart"}, time.Millisecond)
	collector.OnOutcome("a", true, routing.ProviderMetrics{SuccessRate: 1})
	collector.OnHealthChange("a", true)
	collector.RecordProviderError("a", "timeout")

	if got := testutil.CollectAndCount(collector.decisions.decisions); got != 0 {
		t.Errorf("expected no decision series, got %d", got)
	}
	if got := testutil.CollectAndCount(collector.providers.outcomes); got != 0 {
		t.Errorf("expected no outcome series, got %d", got)
	}
}

func TestCollector_Cardinality(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(2)

	for _, id := range []providers.ProviderID{"a", "b", "c", "d"} {
		collector.OnOutcome(id, true, routing.ProviderMetrics{SuccessRate: 1})
	}

	if got := testutil.ToFloat64(collector.providers.outcomes.WithLabelValues(OverflowLabel, "success")); got != 2 {
		t.Errorf("expected 2 overflow outcomes, got %v", got)
	}
	if got := testutil.CollectAndCount(collector.providers.successRate); got != 2 {
		t.Errorf("expected gauges only for tracked providers, got %d", got)
	}
}

func TestCollector_ForgetProvider(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.OnOutcome("a", true, routing.ProviderMetrics{SuccessRate: 1})
	collector.OnOutcome("b", true, routing.ProviderMetrics{SuccessRate: 1})
	collector.ForgetProvider("a")

	if got := testutil.CollectAndCount(collector.providers.successRate); got != 1 {
		t.Errorf("expected 1 remaining series, got %d", got)
	}
	if got := testutil.CollectAndCount(collector.providers.outcomes); got != 1 {
		t.Errorf("expected 1 remaining outcome series, got %d", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.OnHealthChange("ollama", true)

	srv := httptest.NewServer(collector.NewServeMux("/metrics"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	err = testutil.GatherAndCompare(collector.Registry(), strings.NewReader(`
# HELP test_router_provider_healthy Provider health gate result (1=healthy, 0=unhealthy)
# TYPE test_router_provider_healthy gauge
test_router_provider_healthy{provider="ollama"} 1
`), "test_router_provider_healthy")
	if err != nil {
		t.Errorf("unexpected metrics output: %v", err)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("expected first two labels to be allowed")
	}
	if !cl.Allow("a") {
		t.Error("expected known label to stay allowed")
	}
	if cl.Allow("c") {
		t.Error("expected third label to be rejected")
	}
	if cl.Count() != 2 {
		t.Errorf("expected count 2, got %d", cl.Count())
	}
}

type fakeSource struct {
	snapshot map[providers.ProviderID]routing.ProviderMetrics
	healthy  map[providers.ProviderID]bool
	stats    routing.RoutingStats
}

func (f *fakeSource) Snapshot() map[providers.ProviderID]routing.ProviderMetrics {
	return f.snapshot
}

func (f *fakeSource) IsHealthy(id providers.ProviderID) bool {
	return f.healthy[id]
}

func (f *fakeSource) GetStats() *routing.RoutingStats {
	return &f.stats
}

func TestReporter_Report(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	source := &fakeSource{
		snapshot: map[providers.ProviderID]routing.ProviderMetrics{
			"ollama": {AvgLatencyMs: 40, SuccessRate: 1},
			"openai": {AvgLatencyMs: 250, SuccessRate: 0.4, ConsecutiveFailures: 3},
		},
		healthy: map[providers.ProviderID]bool{"ollama": true},
		stats:   routing.RoutingStats{TotalRequests: 10},
	}

	reporter := NewReporter(source, collector, "@every 1h", slog.New(slog.DiscardHandler))
	reporter.Report()

	if got := testutil.ToFloat64(collector.providers.health.WithLabelValues("ollama")); got != 1 {
		t.Errorf("expected ollama healthy, got %v", got)
	}
	if got := testutil.ToFloat64(collector.providers.health.WithLabelValues("openai")); got != 0 {
		t.Errorf("expected openai unhealthy, got %v", got)
	}
	if got := testutil.ToFloat64(collector.providers.avgLatency.WithLabelValues("openai")); got != 250 {
		t.Errorf("expected openai latency 250, got %v", got)
	}
}

func TestReporter_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "interval schedule", schedule: "@every 30s", wantRunning: true},
		{name: "cron schedule", schedule: "*/5 * * * *", wantRunning: true},
		{name: "empty schedule", schedule: ""},
		{name: "invalid schedule", schedule: "invalid cron", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reporter := NewReporter(&fakeSource{}, nil, tt.schedule, slog.New(slog.DiscardHandler))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := reporter.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Errorf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if reporter.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", reporter.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning {
				next := reporter.NextRun()
				if next == nil || !next.After(time.Now()) {
					t.Errorf("expected future NextRun, got %v", next)
				}
				if err := reporter.Start(ctx); err == nil {
					t.Error("expected error starting a running reporter")
				}
			}

			reporter.Stop()
			if reporter.IsRunning() {
				t.Error("expected reporter stopped")
			}
		})
	}
}

func TestReporter_StopsOnContextCancel(t *testing.T) {
	reporter := NewReporter(&fakeSource{}, nil, "@every 1h", slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	if err := reporter.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for reporter.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if reporter.IsRunning() {
		t.Error("expected reporter to stop after context cancellation")
	}
}
