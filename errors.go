package sayna

import (
	"errors"
	"fmt"
)

// Common error variables
var (
	// ErrNotConnected is returned by send operations before Connect has
	// succeeded, or after the connection has been closed. Call Connect
	// (again) to resume operations.
	ErrNotConnected = errors.New("sayna: not connected to Sayna WebSocket")

	// ErrNotReady is returned by send operations after Connect but before
	// the server has acknowledged the configuration handshake with a ready
	// message. Wait for the ready event before sending.
	ErrNotReady = errors.New("sayna: voice providers are not ready, wait for the ready event")

	// ErrInvalidConfig is returned when a configuration or request payload
	// fails validation before any network I/O is attempted.
	ErrInvalidConfig = errors.New("sayna: invalid configuration")

	// ErrConnectionFailed is returned when the WebSocket connection cannot
	// be established or breaks down mid-operation.
	ErrConnectionFailed = errors.New("sayna: connection failed")

	// ErrInvalidMessage is recorded when an inbound frame cannot be decoded
	// into a known message. It is never surfaced to callers of the client;
	// malformed frames are logged and dropped.
	ErrInvalidMessage = errors.New("sayna: invalid message")

	// ErrServer is returned when the Sayna server responds to a REST call
	// with a 5xx status.
	ErrServer = errors.New("sayna: server error")
)

// ValidationError reports invalid input supplied by the caller, either a bad
// configuration bundle or a request the server rejected as malformed (4xx).
type ValidationError struct {
	Field   string // The offending field, when a single field is at fault
	Message string // Detailed error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("sayna: invalid field %q: %s", e.Field, e.Message)
	}
	return "sayna: " + e.Message
}

// Is implements error matching for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ConnectionError represents a WebSocket connection failure.
// It wraps underlying network errors with additional context.
type ConnectionError struct {
	URL       string // The WebSocket URL involved
	Operation string // The operation that failed (e.g. "dial", "write", "close")
	Cause     error  // The underlying error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sayna: %s failed for %q: %v", e.Operation, e.URL, e.Cause)
	}
	return fmt.Sprintf("sayna: %s failed for %q", e.Operation, e.URL)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for ConnectionError.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// DecodeError reports an inbound frame that could not be decoded into the
// message variant named by its discriminator.
type DecodeError struct {
	Kind  string // The discriminator value of the frame, if readable
	Cause error  // The underlying parse or validation error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("sayna: failed to decode %s message: %v", e.Kind, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrInvalidMessage
}

// ServerError represents a 5xx response from the Sayna REST API.
type ServerError struct {
	Status  int    // HTTP status code
	Message string // Error description reported by the server
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("sayna: server error (status %d): %s", e.Status, e.Message)
}

// Is implements error matching for ServerError.
func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// Helper functions for creating specific errors

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewConnectionError creates a new connection error.
func NewConnectionError(url, operation string, cause error) *ConnectionError {
	return &ConnectionError{URL: url, Operation: operation, Cause: cause}
}

// NewDecodeError creates a new decode error.
func NewDecodeError(kind string, cause error) *DecodeError {
	return &DecodeError{Kind: kind, Cause: cause}
}

// NewServerError creates a new server error.
func NewServerError(status int, message string) *ServerError {
	return &ServerError{Status: status, Message: message}
}
