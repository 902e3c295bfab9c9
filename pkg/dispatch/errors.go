package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"mercator-hq/conductor/pkg/providers"
)

// ErrAllProvidersFailed is matched by every AllProvidersFailedError.
var ErrAllProvidersFailed = errors.New("all providers failed")

// AllProvidersFailedError is returned when every provider in the routed
// order was attempted and none succeeded.
type AllProvidersFailedError struct {
	// Attempted lists the providers tried, in order.
	Attempted []providers.ProviderID

	// LastError is the error from the final attempt.
	LastError error
}

// Error implements the error interface.
func (e *AllProvidersFailedError) Error() string {
	ids := make([]string, len(e.Attempted))
	for i, id := range e.Attempted {
		ids[i] = string(id)
	}
	return fmt.Sprintf("all providers failed (attempted: %s): %v", strings.Join(ids, ", "), e.LastError)
}

// Unwrap returns the last attempt's error.
func (e *AllProvidersFailedError) Unwrap() error {
	return e.LastError
}

// Is implements error matching for errors.Is().
func (e *AllProvidersFailedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}
