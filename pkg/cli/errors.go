package cli

import (
	"errors"
	"fmt"

	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/dispatch"
	"mercator-hq/conductor/pkg/routing"
)

// Process exit codes.
const (
	ExitOK                 = 0
	ExitError              = 1
	ExitInvalidConfig      = 2
	ExitNoHealthyProviders = 3
	ExitAllProvidersFailed = 4
)

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	var verr config.ValidationError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &verr),
		errors.Is(err, routing.ErrInvalidConfiguration),
		errors.Is(err, routing.ErrInvalidStrategy):
		return ExitInvalidConfig
	case errors.Is(err, routing.ErrNoHealthyProviders):
		return ExitNoHealthyProviders
	case errors.Is(err, dispatch.ErrAllProvidersFailed):
		return ExitAllProvidersFailed
	default:
		return ExitError
	}
}
