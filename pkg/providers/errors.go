package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProviderError represents a general provider error.
// It includes the provider identity, HTTP status code, and underlying error.
type ProviderError struct {
	// Provider is the provider that returned the error
	Provider ProviderID

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure (HTTP 401 or 403).
type AuthError struct {
	Provider ProviderID
	Message  string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
// It includes the retry-after duration if provided by the provider.
type RateLimitError struct {
	Provider   ProviderID
	RetryAfter time.Duration
	Message    string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request that exceeded its deadline.
type TimeoutError struct {
	Provider ProviderID
	Timeout  time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// UnavailableError represents a provider that could not be reached or
// returned a server-side failure (HTTP 5xx, connection refused).
type UnavailableError struct {
	Provider ProviderID
	Cause    error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider %q unavailable: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a request validation failure detected before
// the request is sent.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// StreamError represents an error that occurred during streaming.
type StreamError struct {
	Provider ProviderID
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// IsRetriable reports whether a failed attempt should move on to the next
// provider in the fallback chain. Rate limits, timeouts, unavailability and
// stream failures are retriable; auth and validation failures are not,
// because every provider would see the same request. Cancellation of the
// caller's context is never retriable.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) && providerErr.StatusCode >= 400 && providerErr.StatusCode < 500 {
		return providerErr.StatusCode == 408 || providerErr.StatusCode == 429
	}

	return true
}

// ErrorType classifies an error for logging and metric labels.
func ErrorType(err error) string {
	var (
		authErr        *AuthError
		rateLimitErr   *RateLimitError
		timeoutErr     *TimeoutError
		unavailableErr *UnavailableError
		validationErr  *ValidationError
		streamErr      *StreamError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &rateLimitErr):
		return "rate_limit"
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &unavailableErr):
		return "unavailable"
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &streamErr):
		return "stream"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "provider"
	}
}
