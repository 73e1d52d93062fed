package upstream

import (
	"errors"
	"fmt"

	"licences/pkg/platform/sentinel"
)

// ErrorCategory classifies an upstream failure.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorOutage         ErrorCategory = "outage"
	ErrorNotFound       ErrorCategory = "not_found"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorInternal       ErrorCategory = "internal"
)

// Error wraps an upstream failure with its category. errors.Is matches it
// against the sentinel errors so services translate it like store errors:
// not_found is sentinel.ErrNotFound, bad_data is sentinel.ErrInvalidInput and
// everything else is sentinel.ErrUnavailable.
type Error struct {
	Category   ErrorCategory
	Upstream   string
	Message    string
	StatusCode int
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Upstream, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Upstream, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func (e *Error) Is(target error) bool {
	switch e.Category {
	case ErrorNotFound:
		return target == sentinel.ErrNotFound
	case ErrorBadData:
		return target == sentinel.ErrInvalidInput
	default:
		return target == sentinel.ErrUnavailable
	}
}

// Retryable reports whether the failure is transient.
func (e *Error) Retryable() bool {
	return e.Category == ErrorTimeout || e.Category == ErrorOutage || e.Category == ErrorRateLimited
}

func newError(category ErrorCategory, name, message string, status int, underlying error) *Error {
	return &Error{Category: category, Upstream: name, Message: message, StatusCode: status, Underlying: underlying}
}

// CategoryOf returns the category of err, or "" when err is not an upstream error.
func CategoryOf(err error) ErrorCategory {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Category
	}
	return ""
}
