// Package errors defines the coded error taxonomy shared by the registry client,
// the migration orchestrator and the user-facing surfaces.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown    = "UNKNOWN"
	CodeNetwork    = "NETWORK"
	CodeHTTP       = "HTTP"
	CodeValidation = "VALIDATION"
	CodeDatabase   = "DATABASE"
	CodeConfig     = "CONFIG"
)

// ApplicationError is implemented by every coded error in this package.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// coded carries the code, message and cause shared by the error types below.
type coded struct {
	code    string
	message string
	err     error
}

func (c *coded) Error() string {
	if c.err == nil {
		return c.message
	}
	return c.message + ": " + c.err.Error()
}

func (c *coded) Code() string  { return c.code }
func (c *coded) Unwrap() error { return c.err }

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown when there is none.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// NetworkError is a transport-level failure: the request never produced a response.
type NetworkError struct {
	coded
	Op string
}

func NewNetworkError(op string, cause error) error {
	return &NetworkError{
		Op:    op,
		coded: coded{code: CodeNetwork, message: op + ": request failed", err: cause},
	}
}

// HTTPError is a non-success response from a remote endpoint.
type HTTPError struct {
	Op     string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

func (e *HTTPError) Code() string {
	return CodeHTTP
}

func (e *HTTPError) Unwrap() error {
	return nil
}

func NewHTTPError(op string, status int, body string) error {
	return &HTTPError{Op: op, Status: status, Body: body}
}

// IsStatus reports whether err carries an HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == status
}

// ValidationError is bad user input, caught before any network call.
type ValidationError struct {
	coded
	Field string
}

func NewValidationError(field, message string) error {
	return &ValidationError{
		Field: field,
		coded: coded{code: CodeValidation, message: message},
	}
}

// DatabaseError wraps a failed store operation.
type DatabaseError struct{ coded }

func NewDatabaseError(message string, cause error) error {
	return &DatabaseError{coded{code: CodeDatabase, message: message, err: cause}}
}

// ConfigError reports an unreadable or invalid configuration.
type ConfigError struct{ coded }

func NewConfigError(message string, cause error) error {
	return &ConfigError{coded{code: CodeConfig, message: message, err: cause}}
}
