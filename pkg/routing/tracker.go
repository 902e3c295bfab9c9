package routing

import (
	"errors"
	"sync"
	"time"

	"mercator-hq/conductor/pkg/providers"
)

// EMA blend constants for metric updates.
const (
	// LatencyHistoryWeight is the weight of the previous average latency.
	LatencyHistoryWeight = 0.9

	// LatencySampleWeight is the weight of a new latency sample.
	LatencySampleWeight = 0.1

	// SuccessHistoryWeight is the weight of the previous success rate when
	// a success is recorded.
	SuccessHistoryWeight = 0.95

	// SuccessSampleWeight is the weight of a success sample.
	SuccessSampleWeight = 0.05

	// FailureDecay multiplies the success rate on every failure.
	FailureDecay = 0.95
)

// Health gate defaults.
const (
	DefaultFailureThreshold = 3
	DefaultMinSuccessRate   = 0.5
	DefaultFailureCooldown  = 5 * time.Minute
)

// HealthPolicy holds the health gate thresholds. A provider is healthy when
// it has fewer than FailureThreshold consecutive failures, a success rate
// above MinSuccessRate, and either no active failure streak or a last
// failure older than FailureCooldown.
type HealthPolicy struct {
	FailureThreshold int
	MinSuccessRate   float64
	FailureCooldown  time.Duration
}

// DefaultHealthPolicy returns the default thresholds: 3 failures, a 0.5
// success rate and a 5 minute cooldown.
func DefaultHealthPolicy() HealthPolicy {
	return HealthPolicy{
		FailureThreshold: DefaultFailureThreshold,
		MinSuccessRate:   DefaultMinSuccessRate,
		FailureCooldown:  DefaultFailureCooldown,
	}
}

// Validate checks the thresholds.
func (p HealthPolicy) Validate() error {
	if p.FailureThreshold < 1 {
		return errors.New("health failure threshold must be at least 1")
	}
	if p.MinSuccessRate < 0 || p.MinSuccessRate >= 1 {
		return errors.New("health min success rate must be in [0, 1)")
	}
	if p.FailureCooldown < 0 {
		return errors.New("health failure cooldown must be non-negative")
	}
	return nil
}

// ProviderMetrics are the rolling statistics kept for one provider.
type ProviderMetrics struct {
	// AvgLatencyMs is the EMA of successful call latency in milliseconds.
	AvgLatencyMs float64 `json:"avg_latency_ms"`

	// SuccessRate is the EMA success rate, always in [0, 1].
	SuccessRate float64 `json:"success_rate"`

	TotalRequests int64   `json:"total_requests"`
	Successes     int64   `json:"successes"`
	Failures      int64   `json:"failures"`
	TotalTokens   int64   `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`

	// AvgCostPerToken is TotalCost/TotalTokens, or zero before any tokens.
	AvgCostPerToken float64 `json:"avg_cost_per_token"`

	// ConsecutiveFailures resets to zero on any success.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// LastFailure is the time of the most recent failure; zero if none.
	LastFailure time.Time `json:"last_failure,omitempty"`
}

// newProviderMetrics returns the optimistic defaults for a provider with no
// history.
func newProviderMetrics() *ProviderMetrics {
	return &ProviderMetrics{SuccessRate: 1.0}
}

// healthy applies the gate to m at time now.
func (p HealthPolicy) healthy(m *ProviderMetrics, now time.Time) bool {
	if m.ConsecutiveFailures >= p.FailureThreshold {
		return false
	}
	if m.SuccessRate <= p.MinSuccessRate {
		return false
	}
	if m.ConsecutiveFailures == 0 || m.LastFailure.IsZero() {
		return true
	}
	return now.Sub(m.LastFailure) > p.FailureCooldown
}

// HealthTransition describes the health gate before and after an outcome
// was recorded.
type HealthTransition struct {
	WasHealthy bool
	Healthy    bool
}

// Changed reports whether the outcome flipped the gate.
func (t HealthTransition) Changed() bool {
	return t.WasHealthy != t.Healthy
}

// MetricsTracker keeps per-provider metrics. All fields of one provider are
// updated together under a single lock, so readers never observe a partial
// update.
//
// MetricsTracker is thread-safe and can be used concurrently.
type MetricsTracker struct {
	mu      sync.RWMutex
	metrics map[providers.ProviderID]*ProviderMetrics
	policy  HealthPolicy
	now     func() time.Time
}

// NewMetricsTracker creates an empty tracker using policy and the given
// clock. A nil clock uses time.Now.
func NewMetricsTracker(policy HealthPolicy, now func() time.Time) *MetricsTracker {
	if now == nil {
		now = time.Now
	}
	return &MetricsTracker{
		metrics: make(map[providers.ProviderID]*ProviderMetrics),
		policy:  policy,
		now:     now,
	}
}

// SetPolicy replaces the health thresholds.
func (t *MetricsTracker) SetPolicy(policy HealthPolicy) {
	t.mu.Lock()
	t.policy = policy
	t.mu.Unlock()
}

// Policy returns the current health thresholds.
func (t *MetricsTracker) Policy() HealthPolicy {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.policy
}

// Register creates an optimistic metrics record for id if none exists.
func (t *MetricsTracker) Register(id providers.ProviderID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.metrics[id]; !ok {
		t.metrics[id] = newProviderMetrics()
	}
}

// Remove deletes the record for id.
func (t *MetricsTracker) Remove(id providers.ProviderID) {
	t.mu.Lock()
	delete(t.metrics, id)
	t.mu.Unlock()
}

// Reset restores the optimistic defaults for id. It reports whether id had
// a record.
func (t *MetricsTracker) Reset(id providers.ProviderID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.metrics[id]; !ok {
		return false
	}
	t.metrics[id] = newProviderMetrics()
	return true
}

// RecordSuccess records a completed call. latency is the observed call
// duration, tokens the tokens consumed and cost the USD cost.
func (t *MetricsTracker) RecordSuccess(id providers.ProviderID, latency time.Duration, tokens int, cost float64) (ProviderMetrics, HealthTransition) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	m := t.entry(id)
	tr := HealthTransition{WasHealthy: t.policy.healthy(m, now)}

	latencyMs := float64(latency) / float64(time.Millisecond)
	if m.Successes == 0 {
		m.AvgLatencyMs = latencyMs
	} else {
		m.AvgLatencyMs = LatencyHistoryWeight*m.AvgLatencyMs + LatencySampleWeight*latencyMs
	}

	if m.TotalRequests == 0 {
		m.SuccessRate = 1.0
	} else {
		m.SuccessRate = clampRate(SuccessHistoryWeight*m.SuccessRate + SuccessSampleWeight*1.0)
	}

	m.TotalRequests++
	m.Successes++
	if tokens > 0 {
		m.TotalTokens += int64(tokens)
	}
	if cost > 0 {
		m.TotalCost += cost
	}
	if m.TotalTokens > 0 {
		m.AvgCostPerToken = m.TotalCost / float64(m.TotalTokens)
	}
	m.ConsecutiveFailures = 0

	tr.Healthy = t.policy.healthy(m, now)
	return *m, tr
}

// RecordFailure records a failed call.
func (t *MetricsTracker) RecordFailure(id providers.ProviderID) (ProviderMetrics, HealthTransition) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	m := t.entry(id)
	tr := HealthTransition{WasHealthy: t.policy.healthy(m, now)}

	m.TotalRequests++
	m.Failures++
	m.ConsecutiveFailures++
	m.LastFailure = now
	m.SuccessRate = clampRate(m.SuccessRate * FailureDecay)

	tr.Healthy = t.policy.healthy(m, now)
	return *m, tr
}

// IsHealthy applies the health gate. A provider without a record is healthy.
func (t *MetricsTracker) IsHealthy(id providers.ProviderID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.metrics[id]
	if !ok {
		return true
	}
	return t.policy.healthy(m, t.now())
}

// Get returns a copy of the record for id.
func (t *MetricsTracker) Get(id providers.ProviderID) (ProviderMetrics, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.metrics[id]
	if !ok {
		return ProviderMetrics{}, false
	}
	return *m, true
}

// Snapshot returns copies of all records.
func (t *MetricsTracker) Snapshot() map[providers.ProviderID]ProviderMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[providers.ProviderID]ProviderMetrics, len(t.metrics))
	for id, m := range t.metrics {
		out[id] = *m
	}
	return out
}

// entry returns the record for id, creating it. Callers hold t.mu.
func (t *MetricsTracker) entry(id providers.ProviderID) *ProviderMetrics {
	m, ok := t.metrics[id]
	if !ok {
		m = newProviderMetrics()
		t.metrics[id] = m
	}
	return m
}

func clampRate(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
