package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mercator-hq/conductor/pkg/providers"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrNoHealthyProviders is returned when every candidate is blocked or
	// unhealthy.
	ErrNoHealthyProviders = errors.New("no healthy providers available")

	// ErrNoCandidates is returned when the caller supplied no candidates.
	// Errors matching it also match ErrNoHealthyProviders.
	ErrNoCandidates = errors.New("no candidate providers supplied")

	// ErrInvalidConfiguration is returned when the configuration cannot be
	// satisfied, for example a fixed provider that is not selectable.
	ErrInvalidConfiguration = errors.New("invalid routing configuration")

	// ErrInvalidStrategy is returned when an unknown routing strategy is configured.
	ErrInvalidStrategy = errors.New("invalid routing strategy")

	// ErrRouterClosed is returned by a router after Close.
	ErrRouterClosed = errors.New("router is closed")
)

// NoHealthyProvidersError is returned when no candidate survives filtering.
type NoHealthyProvidersError struct {
	// Candidates are the deduplicated providers the caller offered.
	Candidates []providers.ProviderID

	// Blocked are the candidates removed by the block list.
	Blocked []providers.ProviderID

	// Unhealthy are the candidates removed by the health gate.
	Unhealthy []providers.ProviderID
}

// Error implements the error interface.
func (e *NoHealthyProvidersError) Error() string {
	if len(e.Candidates) == 0 {
		return "no healthy providers available (no candidates supplied)"
	}
	return fmt.Sprintf("no healthy providers available (candidates: %s, blocked: %s, unhealthy: %s)",
		joinIDs(e.Candidates), joinIDs(e.Blocked), joinIDs(e.Unhealthy))
}

// Is implements error matching for errors.Is().
func (e *NoHealthyProvidersError) Is(target error) bool {
	if target == ErrNoCandidates {
		return len(e.Candidates) == 0
	}
	return target == ErrNoHealthyProviders
}

// Fixed provider rejection reasons.
const (
	ReasonNotAvailable = "not available"
	ReasonBlocked      = "blocked"
	ReasonUnhealthy    = "unhealthy"
)

// FixedProviderUnavailableError is returned by the fixed strategy when its
// provider is not among the filtered candidates. Callers should fix the
// configuration rather than retry.
type FixedProviderUnavailableError struct {
	// Provider is the configured fixed provider.
	Provider providers.ProviderID

	// Reason is one of ReasonNotAvailable, ReasonBlocked or ReasonUnhealthy.
	Reason string
}

// Error implements the error interface.
func (e *FixedProviderUnavailableError) Error() string {
	return fmt.Sprintf("fixed provider %q is %s", e.Provider, e.Reason)
}

// Is implements error matching for errors.Is().
func (e *FixedProviderUnavailableError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// InvalidStrategyError is returned when the configured routing strategy
// is not recognized.
type InvalidStrategyError struct {
	// Strategy is the invalid strategy name.
	Strategy string

	// AvailableStrategies contains the valid strategy names.
	AvailableStrategies []string
}

// Error implements the error interface.
func (e *InvalidStrategyError) Error() string {
	return fmt.Sprintf("invalid routing strategy %q (available strategies: %s)",
		e.Strategy, strings.Join(e.AvailableStrategies, ", "))
}

// Is implements error matching for errors.Is().
func (e *InvalidStrategyError) Is(target error) bool {
	return target == ErrInvalidStrategy
}

// ErrorKind returns a short stable label for a routing error, suitable for
// metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNoCandidates):
		return "no_candidates"
	case errors.Is(err, ErrNoHealthyProviders):
		return "no_healthy_providers"
	case errors.Is(err, ErrInvalidStrategy):
		return "invalid_strategy"
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrRouterClosed):
		return "router_closed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	default:
		return "other"
	}
}

func joinIDs(ids []providers.ProviderID) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
