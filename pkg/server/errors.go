package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for dispatch outcomes.
var (
	// ErrNoMatch is returned when no route pattern matches the request
	// path, or the matched leaf lacks the handler the method requires.
	ErrNoMatch = errors.New("server: no matching route")
)

// DispatchError wraps a failure with request context for logging.
type DispatchError struct {
	Method  string
	Path    string
	Pattern string // matched route pattern, "" when matching itself failed
	Err     error
}

// Error returns the error message with request context.
func (e *DispatchError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("server: %s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("server: %s %s (route %s): %v", e.Method, e.Path, e.Pattern, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *DispatchError) Unwrap() error {
	return e.Err
}
