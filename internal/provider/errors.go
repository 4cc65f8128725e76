package provider

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for provider calls.
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorOutage indicates the provider is unavailable.
	ErrorOutage ErrorCategory = "outage"

	// ErrorAuthentication indicates credential or permission issues.
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorBadData indicates the provider returned invalid/malformed data.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorNotFound indicates the screening request doesn't exist provider-side.
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorInternal indicates an unexpected internal error.
	ErrorInternal ErrorCategory = "internal"
)

// Error wraps provider failures with normalized categorization so the check
// service can treat them uniformly while logs keep the distinction.
type Error struct {
	Category   ErrorCategory
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider [%s]: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a normalized provider error.
func NewError(category ErrorCategory, message string, underlying error) *Error {
	return &Error{Category: category, Message: message, Underlying: underlying}
}

// CategoryOf extracts the error category from an error.
func CategoryOf(err error) ErrorCategory {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}
