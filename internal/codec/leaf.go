package codec

import (
	"encoding"
	"reflect"
	"time"

	"github.com/amir734jj/Sqlite-ORM/internal/errs"
)

var (
	timeType            = reflect.TypeFor[time.Time]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// IsLeaf reports whether t is stored in a single column. Pointers to leaf
// types are leaves too; a nil pointer is stored as NULL.
func IsLeaf(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if isBaseLeaf(t) {
		return true
	}
	return t.Kind() == reflect.Pointer && isBaseLeaf(t.Elem())
}

func isBaseLeaf(t reflect.Type) bool {
	if _, ok := lookup(t); ok {
		return true
	}
	if t == timeType || isBytes(t) || isText(t) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

// isText reports types that round-trip through encoding.TextMarshaler.
func isText(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return false
	}
	marshals := t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType)
	return marshals && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// Storage returns the column type used for leaf type t.
func Storage(t reflect.Type) (StorageClass, error) {
	if c, ok := lookup(t); ok {
		return c.Storage, nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		if c, ok := lookup(t); ok {
			return c.Storage, nil
		}
	}

	switch {
	case t == timeType:
		return Text, nil
	case isBytes(t):
		return Blob, nil
	case isText(t):
		return Text, nil
	}

	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Integer, nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return Numeric, nil
	case reflect.Float32, reflect.Float64:
		return Real, nil
	case reflect.String, reflect.Bool:
		return Text, nil
	}
	return "", &errs.UnsupportedTypeError{Type: t, Reason: "no storage class"}
}
