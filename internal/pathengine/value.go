package pathengine

import (
	"fmt"
	"reflect"

	"github.com/amir734jj/Sqlite-ORM/internal/codec"
	"github.com/amir734jj/Sqlite-ORM/internal/errs"
)

// GetValue reads the field at a dotted path of a live struct (or pointer to
// struct). It reports false, without error, when a pointer on the way is nil.
func GetValue(path string, v any) (any, bool, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, false, errs.NewValidationError(path, "malformed path", err)
	}

	cur := reflect.ValueOf(v)
	for _, seg := range segments {
		cur, err = descend(cur, path, seg)
		if err != nil {
			return nil, false, err
		}
		if !cur.IsValid() {
			return nil, false, nil
		}
	}
	return cur.Interface(), true, nil
}

// SetValue writes value at a dotted path of target, which must be a non-nil
// pointer. Every intermediate pointer must already be allocated.
func SetValue(path string, target any, value any) error {
	segments, err := ParsePath(path)
	if err != nil {
		return errs.NewValidationError(path, "malformed path", err)
	}

	cur := reflect.ValueOf(target)
	if cur.Kind() != reflect.Pointer || cur.IsNil() {
		return errs.NewValidationError(path, "target must be a non-nil pointer", nil)
	}

	for i, seg := range segments {
		cur, err = descend(cur, path, seg)
		if err != nil {
			return err
		}
		if !cur.IsValid() {
			return fmt.Errorf("set %q at %q: %w", path, JoinPath(segments[:i]...), errs.ErrNilIntermediate)
		}
	}

	if err := assign(cur, reflect.ValueOf(value)); err != nil {
		return errs.NewValidationError(path, "incompatible value", err)
	}
	return nil
}

// descend dereferences cur and returns its field named seg. A nil pointer
// yields the invalid Value.
func descend(cur reflect.Value, path, seg string) (reflect.Value, error) {
	for cur.Kind() == reflect.Pointer || cur.Kind() == reflect.Interface {
		if cur.IsNil() {
			return reflect.Value{}, nil
		}
		cur = cur.Elem()
	}
	if !cur.IsValid() {
		return reflect.Value{}, errs.NewValidationError(path, "nil value", nil)
	}
	if cur.Kind() != reflect.Struct {
		return reflect.Value{}, errs.NewValidationError(path, fmt.Sprintf("%q is not a field of %v", seg, cur.Type()), nil)
	}

	field := findField(cur, seg)
	if !field.IsValid() {
		return reflect.Value{}, errs.NewValidationError(path, fmt.Sprintf("%v has no field %q", cur.Type(), seg), nil)
	}
	return field, nil
}

// findField resolves a segment by orm tag first, then by field name,
// looking through embedded structs.
func findField(v reflect.Value, name string) reflect.Value {
	if f := findFieldBy(v, name, true); f.IsValid() {
		return f
	}
	return findFieldBy(v, name, false)
}

func findFieldBy(v reflect.Value, name string, byTag bool) reflect.Value {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() && !promoted(f) {
			continue
		}
		seg, skip := segmentName(f)
		if skip {
			continue
		}

		if promoted(f) {
			if inner := findFieldBy(v.Field(i), name, byTag); inner.IsValid() {
				return inner
			}
			continue
		}

		if byTag && seg != f.Name && seg == name {
			return v.Field(i)
		}
		if !byTag && f.Name == name && seg == f.Name {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

// MaterializeDefault returns an addressable zero value of t in which every
// composite pointer field is allocated, recursively. Self-referencing
// pointers are left nil.
func MaterializeDefault(t reflect.Type) reflect.Value {
	v := reflect.New(t).Elem()
	fill(v, map[reflect.Type]bool{})
	return v
}

func fill(v reflect.Value, stack map[reflect.Type]bool) {
	t := v.Type()
	if t.Kind() != reflect.Struct || codec.IsLeaf(t) || stack[t] {
		return
	}
	stack[t] = true
	defer delete(stack, t)

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() && !promoted(f) {
			continue
		}
		fv := v.Field(i)
		switch {
		case codec.IsLeaf(f.Type):
		case f.Type.Kind() == reflect.Struct:
			fill(fv, stack)
		case isComposite(f.Type):
			if stack[f.Type.Elem()] {
				continue
			}
			p := reflect.New(f.Type.Elem())
			fill(p.Elem(), stack)
			fv.Set(p)
		}
	}
}

// ElementType returns the element type of a slice or array type, looking
// through one level of pointer.
func ElementType(t reflect.Type) (reflect.Type, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem(), true
	}
	return nil, false
}
