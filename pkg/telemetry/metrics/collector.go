package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routing"
)

// DefaultMaxProviders bounds the number of distinct provider label values.
const DefaultMaxProviders = 256

// OverflowLabel replaces provider IDs beyond the cardinality limit.
const OverflowLabel = "other"

// Collector exports routing activity as Prometheus metrics. It implements
// routing.Observer, so it is attached to a router with routing.WithObserver.
//
// Every method is a no-op when metrics are disabled in the configuration.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry
	enabled  bool

	decisions *DecisionMetrics
	providers *ProviderMetrics

	cardinalityLimiter *CardinalityLimiter
}

var _ routing.Observer = (*Collector)(nil)

// NewCollector creates a collector registered with registry. If registry is
// nil a new private registry is used. Zero-valued naming fields fall back to
// their configuration defaults.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	router, err := routing.NewRouter(rcfg, strategies.New, routing.WithObserver(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := *cfg
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	if c.Subsystem == "" {
		c.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(c.DecisionDurationBuckets) == 0 {
		c.DecisionDurationBuckets = config.DefaultDecisionDurationBuckets
	}

	return &Collector{
		config:             &c,
		registry:           registry,
		enabled:            c.IsEnabled(),
		decisions:          NewDecisionMetrics(&c, registry),
		providers:          NewProviderMetrics(&c, registry),
		cardinalityLimiter: NewCardinalityLimiter(DefaultMaxProviders),
	}
}

// OnDecision implements routing.Observer.
func (c *Collector) OnDecision(result *routing.RoutingResult, elapsed time.Duration) {
	if !c.enabled || result == nil {
		return
	}
	c.decisions.RecordDecision(
		result.Strategy,
		result.Priority.String(),
		c.providerLabel(result.Primary()),
		len(result.Fallbacks()),
		len(result.Filtered),
		elapsed,
	)
}

// OnRoutingError implements routing.Observer.
func (c *Collector) OnRoutingError(strategy string, err error) {
	if !c.enabled {
		return
	}
	c.decisions.RecordError(strategy, routing.ErrorKind(err))
}

// OnOutcome implements routing.Observer.
func (c *Collector) OnOutcome(id providers.ProviderID, success bool, m routing.ProviderMetrics) {
	if !c.enabled {
		return
	}
	label := c.providerLabel(id)
	c.providers.RecordOutcome(label, success)
	if label != OverflowLabel {
		c.providers.Observe(label, m)
	}
}

// OnHealthChange implements routing.Observer.
func (c *Collector) OnHealthChange(id providers.ProviderID, healthy bool) {
	if !c.enabled {
		return
	}
	if label := c.providerLabel(id); label != OverflowLabel {
		c.providers.UpdateHealth(label, healthy)
	}
}

// RecordProviderError counts a provider error observed while dispatching.
func (c *Collector) RecordProviderError(id providers.ProviderID, errorType string) {
	if !c.enabled {
		return
	}
	c.providers.RecordError(c.providerLabel(id), errorType)
}

// ObserveSnapshot sets the provider gauges from a full metrics snapshot.
// healthy reports the health gate for each provider.
func (c *Collector) ObserveSnapshot(snapshot map[providers.ProviderID]routing.ProviderMetrics, healthy func(providers.ProviderID) bool) {
	if !c.enabled {
		return
	}
	for id, m := range snapshot {
		label := c.providerLabel(id)
		if label == OverflowLabel {
			continue
		}
		c.providers.Observe(label, m)
		if healthy != nil {
			c.providers.UpdateHealth(label, healthy(id))
		}
	}
}

// ForgetProvider drops every series for a provider that was unregistered.
func (c *Collector) ForgetProvider(id providers.ProviderID) {
	c.providers.Delete(string(id))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c.enabled
}

func (c *Collector) providerLabel(id providers.ProviderID) string {
	if id == "" {
		return "none"
	}
	if !c.cardinalityLimiter.Allow(string(id)) {
		return OverflowLabel
	}
	return string(id)
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used: it is already tracked
// or the limit has not been reached.
func (cl *CardinalityLimiter) Allow(label string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[label]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[label]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[label] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
