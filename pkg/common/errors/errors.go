// Package errors defines the error kinds shared by seqflow packages.
//
// Every failure surfaced by a pipeline matches exactly one of the sentinel
// kinds below under errors.Is, so callers can branch on the kind without
// depending on the concrete error type.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument indicates a stage or source was given an illegal argument,
	// such as a negative limit or skip count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyConsumed indicates a terminal operation was invoked on a pipeline
	// that has already been evaluated.
	ErrAlreadyConsumed = errors.New("pipeline already consumed")

	// ErrUnsupportedOperation indicates a stage cannot be evaluated against its
	// upstream, such as sorting an infinite source.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrDuplicateKey indicates two elements mapped to the same key while
	// collecting into a mapping without a merge function.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrIOFailure indicates an external line source failed to open or read.
	ErrIOFailure = errors.New("i/o failure")

	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ValidationError describes an argument that failed validation.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidArgument.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// OperationError wraps a failure raised while evaluating a named operation.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// DuplicateKeyError reports the key that collided while collecting into a mapping.
type DuplicateKeyError struct {
	Key interface{}
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %v", e.Key)
}

// Is reports whether target is ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// IOError wraps a failure from an external line source.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrIOFailure.
func (e *IOError) Is(target error) bool {
	return target == ErrIOFailure
}

// IsRetryable returns true if rebuilding the pipeline from its original source
// might succeed. Only I/O failures qualify; nothing is retried internally.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrIOFailure)
}

// IsCallerError returns true if the error stems from misuse of the API rather
// than from the data or the environment.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrAlreadyConsumed) ||
		errors.Is(err, ErrUnsupportedOperation) ||
		errors.Is(err, ErrInvalidConfiguration)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
