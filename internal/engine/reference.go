package engine

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/amir734jj/Sqlite-ORM/internal/codec"
	"github.com/amir734jj/Sqlite-ORM/internal/errs"
	"github.com/amir734jj/Sqlite-ORM/internal/pathengine"
)

// reference binds a collection field to the engine of its element table.
type reference struct {
	field   *pathengine.Collection
	engine  *Engine
	pointer bool // elements are *T where the element engine stores T
}

func (e *Engine) newReference(c *pathengine.Collection) (*reference, error) {
	elem, ok := pathengine.ElementType(c.Type)
	if !ok {
		return nil, &errs.UnsupportedTypeError{Type: c.Type, Path: c.Name, Reason: "not a collection"}
	}

	pointer := false
	if !codec.IsLeaf(elem) && elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
		pointer = true
	}

	child, err := e.child(elem, c.Name)
	if err != nil {
		return nil, err
	}
	return &reference{field: c, engine: child, pointer: pointer}, nil
}

// elements returns the stored elements of the collection field of root.
// Nil struct pointers are skipped.
func (r *reference) elements(root reflect.Value) []reflect.Value {
	v, ok := r.field.Value(root)
	if !ok {
		return nil
	}
	if v.Kind() == reflect.Slice && v.IsNil() {
		return nil
	}

	items := make([]reflect.Value, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		if r.pointer {
			if item.IsNil() {
				continue
			}
			item = item.Elem()
		}
		items = append(items, item)
	}
	return items
}

// assign stores children into the collection field of root. Slices receive
// every child; arrays are filled up to their length.
func (r *reference) assign(root reflect.Value, children []reflect.Value) error {
	if len(children) == 0 {
		return nil
	}

	t := r.field.Type
	var coll reflect.Value
	if t.Kind() == reflect.Array {
		coll = reflect.New(t).Elem()
		for i := 0; i < len(children) && i < t.Len(); i++ {
			coll.Index(i).Set(r.wrap(children[i]))
		}
	} else {
		coll = reflect.MakeSlice(t, 0, len(children))
		for _, child := range children {
			coll = reflect.Append(coll, r.wrap(child))
		}
	}

	if err := r.field.SetValue(root, coll); err != nil {
		return fmt.Errorf("failed to set %s: %w", r.field.Name, err)
	}
	return nil
}

func (r *reference) wrap(v reflect.Value) reflect.Value {
	if !r.pointer {
		return v
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}

// newLinkKey derives a primary linking key from the encoded row values and a
// random nonce, so equal rows inserted twice still get distinct keys.
func newLinkKey(values []any) string {
	h, _ := blake2b.New256(nil)
	for _, v := range values {
		fmt.Fprintf(h, "%T:%v\x1f", v, v)
	}
	nonce := uuid.New()
	h.Write(nonce[:])
	return hex.EncodeToString(h.Sum(nil))
}
