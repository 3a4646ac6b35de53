package codec

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// StorageClass is the declared SQLite column type of a leaf.
type StorageClass string

const (
	Integer StorageClass = "INTEGER"
	Numeric StorageClass = "NUMERIC"
	Real    StorageClass = "REAL"
	Text    StorageClass = "TEXT"
	Blob    StorageClass = "BLOB"
)

// Custom converts a registered opaque type to and from its stored text.
// Storage defaults to Text when left empty.
type Custom struct {
	Storage StorageClass
	Encode  func(v any) (string, error)
	Decode  func(s string) (any, error)
}

type registry struct {
	mu     sync.RWMutex
	codecs map[reflect.Type]Custom
}

var defaultRegistry = &registry{codecs: make(map[reflect.Type]Custom)}

// Register adds a custom codec for t. Registered types are leaves: the
// path engine never recurses into them. Registering t again replaces the
// previous codec.
func Register(t reflect.Type, c Custom) error {
	if t == nil {
		return errors.New("codec: cannot register nil type")
	}
	if c.Encode == nil || c.Decode == nil {
		return fmt.Errorf("codec: %v needs both an encoder and a decoder", t)
	}
	if c.Storage == "" {
		c.Storage = Text
	}

	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.codecs[t] = c
	return nil
}

// RegisterType is the typed form of Register.
func RegisterType[T any](storage StorageClass, encode func(T) (string, error), decode func(string) (T, error)) error {
	if encode == nil || decode == nil {
		return fmt.Errorf("codec: %v needs both an encoder and a decoder", reflect.TypeFor[T]())
	}
	return Register(reflect.TypeFor[T](), Custom{
		Storage: storage,
		Encode: func(v any) (string, error) {
			typed, ok := v.(T)
			if !ok {
				return "", fmt.Errorf("codec: expected %v, got %T", reflect.TypeFor[T](), v)
			}
			return encode(typed)
		},
		Decode: func(s string) (any, error) {
			return decode(s)
		},
	})
}

// Unregister removes the custom codec for t, if any.
func Unregister(t reflect.Type) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	delete(defaultRegistry.codecs, t)
}

func lookup(t reflect.Type) (Custom, bool) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	c, ok := defaultRegistry.codecs[t]
	return c, ok
}
