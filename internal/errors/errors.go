// Package errors provides standardized domain errors with codes for the
// Argus Panoptes search engine.
//
// Usage:
//
//	// In adapters - return typed errors
//	if resp.StatusCode == http.StatusUnauthorized {
//	    return errors.Auth("catalog rejected credentials")
//	}
//
//	// In the coordinator - classify with errors.As
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    result.Errors = append(result.Errors, domain.SearchError{
//	        Type: domainErr.Code.String(),
//	    })
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code. The string value is the
// `type` field exposed in API error payloads and SearchResult error entries.
type Code string

// Error codes used throughout the application.
const (
	CodeValidation    Code = "validation"     // malformed caller input
	CodeConnection    Code = "connection"     // network unreachable; retryable
	CodeTimeout       Code = "timeout"        // deadline elapsed; retryable
	CodeAuth          Code = "auth"           // 401/403 or missing credential
	CodeRateLimit     Code = "rate_limit"     // 429 from upstream or our own limiter
	CodeParse         Code = "parse"          // malformed or unexpected response body
	CodeCircuitOpen   Code = "circuit_open"   // breaker skipped the call
	CodeSearchTimeout Code = "search_timeout" // global fan-out deadline elapsed
	CodeConfiguration Code = "configuration"  // registry load failure; fatal at startup
	CodeInternal      Code = "internal"
)

// String returns the wire representation of the code.
func (c Code) String() string { return string(c) }

// HTTPStatus returns the appropriate HTTP status code for an error code.
// Adapter-level codes surface as 502 because the upstream catalog, not the
// caller, is at fault.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeTimeout, CodeSearchTimeout:
		return http.StatusGatewayTimeout
	case CodeCircuitOpen:
		return http.StatusServiceUnavailable
	case CodeConnection, CodeAuth, CodeParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// RetryAfter carries the upstream Retry-After hint for rate-limit
	// errors, in seconds. Zero means no hint was supplied.
	RetryAfter int   `json:"retryAfter,omitempty"`
	cause      error // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, RetryAfter: e.RetryAfter, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConnection    = &Error{Code: CodeConnection, Message: "connection failed"}
	ErrTimeout       = &Error{Code: CodeTimeout, Message: "request timed out"}
	ErrAuth          = &Error{Code: CodeAuth, Message: "authentication failed"}
	ErrRateLimit     = &Error{Code: CodeRateLimit, Message: "rate limited"}
	ErrParse         = &Error{Code: CodeParse, Message: "response could not be parsed"}
	ErrCircuitOpen   = &Error{Code: CodeCircuitOpen, Message: "circuit breaker open"}
	ErrSearchTimeout = &Error{Code: CodeSearchTimeout, Message: "search deadline elapsed"}
	ErrConfiguration = &Error{Code: CodeConfiguration, Message: "configuration error"}
	ErrInternal      = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// Validation creates a validation error. Validation messages are shown to
// callers verbatim, so keep them user-safe.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Connection creates a connection error.
func Connection(msg string) *Error {
	return &Error{Code: CodeConnection, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string) *Error {
	return &Error{Code: CodeTimeout, Message: msg}
}

// Auth creates an authentication error.
func Auth(msg string) *Error {
	return &Error{Code: CodeAuth, Message: msg}
}

// RateLimit creates a rate-limit error with an optional Retry-After hint
// in seconds (0 = none).
func RateLimit(msg string, retryAfter int) *Error {
	return &Error{Code: CodeRateLimit, Message: msg, RetryAfter: retryAfter}
}

// Parse creates a parse error.
func Parse(msg string) *Error {
	return &Error{Code: CodeParse, Message: msg}
}

// CircuitOpen creates a circuit-open error.
func CircuitOpen(msg string) *Error {
	return &Error{Code: CodeCircuitOpen, Message: msg}
}

// SearchTimeout creates a search-timeout error.
func SearchTimeout(msg string) *Error {
	return &Error{Code: CodeSearchTimeout, Message: msg}
}

// Configuration creates a configuration error.
func Configuration(msg string) *Error {
	return &Error{Code: CodeConfiguration, Message: msg}
}

// Configurationf creates a configuration error with formatted message.
func Configurationf(format string, args ...any) *Error {
	return &Error{Code: CodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf extracts the domain code from any error. Errors that carry no
// domain code classify as CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Retryable reports whether an error kind is safe to retry. Connection
// failures, timeouts, and uncategorized errors retry; auth, rate-limit, and
// parse failures are permanent for the attempt.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeAuth, CodeRateLimit, CodeParse, CodeValidation, CodeCircuitOpen, CodeConfiguration:
		return false
	default:
		return true
	}
}
