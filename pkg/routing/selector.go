package routing

import (
	"log/slog"

	"mercator-hq/conductor/pkg/providers"
)

// FilterResult is the outcome of candidate filtering.
type FilterResult struct {
	// Available is the caller's list with duplicates removed, order kept.
	Available []providers.ProviderID

	// Candidates are the available providers that passed filtering.
	Candidates []providers.ProviderID

	// Blocked and Unhealthy are the providers removed, in caller order.
	Blocked   []providers.ProviderID
	Unhealthy []providers.ProviderID
}

// ProviderSelector filters caller-supplied providers by the block list and
// the health gate. It is the only pre-filter applied before a strategy runs.
type ProviderSelector struct {
	tracker *MetricsTracker
	logger  *slog.Logger
}

// NewProviderSelector creates a selector backed by tracker.
func NewProviderSelector(tracker *MetricsTracker, logger *slog.Logger) *ProviderSelector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderSelector{tracker: tracker, logger: logger}
}

// Filter removes duplicates, blocked providers and unhealthy providers from
// available. It returns a *NoHealthyProvidersError when nothing survives.
func (s *ProviderSelector) Filter(available []providers.ProviderID, cfg *Config) (*FilterResult, error) {
	res := &FilterResult{
		Available:  Dedupe(available),
		Candidates: make([]providers.ProviderID, 0, len(available)),
	}

	for _, id := range res.Available {
		switch {
		case cfg.IsBlocked(id):
			res.Blocked = append(res.Blocked, id)
			s.logger.Debug("provider excluded by block list", "provider", id)
		case !s.tracker.IsHealthy(id):
			res.Unhealthy = append(res.Unhealthy, id)
			s.logger.Debug("provider excluded due to health", "provider", id)
		default:
			res.Candidates = append(res.Candidates, id)
		}
	}

	s.logger.Debug("filtered candidate providers",
		"total", len(res.Available),
		"candidates", len(res.Candidates),
		"blocked", len(res.Blocked),
		"unhealthy", len(res.Unhealthy),
	)

	if len(res.Candidates) == 0 {
		return res, &NoHealthyProvidersError{
			Candidates: res.Available,
			Blocked:    res.Blocked,
			Unhealthy:  res.Unhealthy,
		}
	}
	return res, nil
}

// Dedupe returns ids without repeats, keeping the first occurrence.
func Dedupe(ids []providers.ProviderID) []providers.ProviderID {
	seen := make(map[providers.ProviderID]struct{}, len(ids))
	out := make([]providers.ProviderID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
