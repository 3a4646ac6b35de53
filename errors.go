package sqliteorm

import "github.com/amir734jj/Sqlite-ORM/internal/errs"

type (
	// SchemaError reports a model type that cannot be mapped.
	SchemaError = errs.SchemaError
	// ValidationError reports a bad filter, path or argument.
	ValidationError = errs.ValidationError
	// ExecutionError wraps a statement the database rejected.
	ExecutionError = errs.ExecutionError
	// UnsupportedTypeError reports a field type with no storage mapping.
	UnsupportedTypeError = errs.UnsupportedTypeError
)

var (
	ErrNotFound            = errs.ErrNotFound
	ErrNoActiveTransaction = errs.ErrNoActiveTransaction
	ErrClosed              = errs.ErrClosed
	ErrNilIntermediate     = errs.ErrNilIntermediate
)
