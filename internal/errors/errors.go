// Package errors defines the typed error taxonomy for the
// reference-search client. Only transport failures and invalid rename
// identifiers ever surface to callers; superseded and canceled searches
// resolve with empty results instead.
package errors

import (
	"errors"
	"fmt"
	"time"

	"github.com/standardbeagle/refscope/internal/types"
)

// Error types for the refscope client
type ErrorType string

const (
	// Search lifecycle errors (internal, never surfaced to callers)
	ErrorTypeSuperseded      ErrorType = "superseded"
	ErrorTypeServiceCanceled ErrorType = "service_canceled"

	// Surfaced errors
	ErrorTypeTransport         ErrorType = "transport"
	ErrorTypeInvalidIdentifier ErrorType = "invalid_identifier"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// SupersededError marks a search replaced by a newer one before it
// completed. It exists for diagnostics only; the coordinator settles
// superseded callers with empty results rather than returning this.
type SupersededError struct {
	Type       ErrorType
	Generation uint64
	Source     types.CancellationSource
	Timestamp  time.Time
}

// NewSupersededError creates a superseded marker for a generation
func NewSupersededError(generation uint64, source types.CancellationSource) *SupersededError {
	return &SupersededError{
		Type:       ErrorTypeSuperseded,
		Generation: generation,
		Source:     source,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SupersededError) Error() string {
	return fmt.Sprintf("search generation %d superseded (%s)", e.Generation, e.Source)
}

// TransportError reports that the engine channel itself failed. Unlike
// cancellation this is a genuine failure and propagates to the caller.
type TransportError struct {
	Type       ErrorType
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewTransportError creates a transport error with operation context
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{
		Type:       ErrorTypeTransport,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("engine transport %s failed: %v", e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *TransportError) Unwrap() error {
	return e.Underlying
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// InvalidIdentifierError rejects a rename before any request is sent.
type InvalidIdentifierError struct {
	Type      ErrorType
	Name      string
	Reason    string
	Timestamp time.Time
}

// NewInvalidIdentifierError creates an invalid identifier error
func NewInvalidIdentifierError(name, reason string) *InvalidIdentifierError {
	return &InvalidIdentifierError{
		Type:      ErrorTypeInvalidIdentifier,
		Name:      name,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Name, e.Reason)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}
