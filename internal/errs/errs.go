// Package errs holds the error taxonomy shared by every layer of the ORM.
//
// The root package re-exports these types, so callers match them with
// errors.As / errors.Is without importing internal packages.
package errs

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNotFound is returned by single-record lookups that match no row.
	ErrNotFound = errors.New("record not found")
	// ErrNoActiveTransaction is returned when there is no open transaction to roll back.
	ErrNoActiveTransaction = errors.New("no active transaction")
	// ErrClosed is returned when a storage handle is used after its database was closed.
	ErrClosed = errors.New("database is closed")
	// ErrNilIntermediate is returned when a property path crosses a nil pointer on write.
	ErrNilIntermediate = errors.New("nil intermediate object on property path")
)

// SchemaError reports that a model type cannot be mapped to a table.
type SchemaError struct {
	Type   reflect.Type
	Field  string
	Reason string
	cause  error
}

// NewSchemaError builds a SchemaError wrapping cause (may be nil).
func NewSchemaError(t reflect.Type, field, reason string, cause error) *SchemaError {
	return &SchemaError{Type: t, Field: field, Reason: reason, cause: cause}
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema error for %v: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("schema error for %v field %q: %s", e.Type, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.cause }

// ValidationError reports a filter or update map that does not fit the model.
type ValidationError struct {
	Field  string
	Reason string
	cause  error
}

// NewValidationError builds a ValidationError wrapping cause (may be nil).
func NewValidationError(field, reason string, cause error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, cause: cause}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.cause }

// ExecutionError reports a statement rejected by the database.
// Statement holds the offending SQL text.
type ExecutionError struct {
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute statement: %v\n%s", e.Err, e.Statement)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// UnsupportedTypeError reports a field type that is neither a leaf, a
// composite nor a collection, or a composite that refers back to itself.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Path   string
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	msg := fmt.Sprintf("unsupported type %v", e.Type)
	if e.Path != "" {
		msg += fmt.Sprintf(" at %q", e.Path)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
