package pathengine

import (
	"reflect"
	"strings"

	"github.com/amir734jj/Sqlite-ORM/internal/codec"
	"github.com/amir734jj/Sqlite-ORM/internal/errs"
)

// ValuePath is the single path of a schema whose root is itself a leaf.
const ValuePath = "Value"

// TagName is the struct tag consulted for segment names. `orm:"-"` skips a
// field, `orm:"Name"` renames its segment.
const TagName = "orm"

// hop is one field access; index may span inlined embedded structs.
type hop struct {
	index []int
}

// Flatten walks t and returns its leaf paths and collection fields.
func Flatten(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, errs.NewSchemaError(nil, "", "nil type", nil)
	}

	s := &Schema{Root: t, index: make(map[string]*Path)}

	if codec.IsLeaf(t) {
		p := &Path{Name: ValuePath, Type: t, get: rootGetter, set: rootSetter}
		s.Tree = []*Node{{Kind: KindLeaf, Name: ValuePath, Path: ValuePath, Type: t, Leaf: p}}
		return s, s.addPath(p)
	}

	if t.Kind() != reflect.Struct {
		return nil, errs.NewSchemaError(t, "", "model must be a struct", nil)
	}

	b := &builder{schema: s, stack: make(map[reflect.Type]bool)}
	tree, err := b.walk(t, "", nil, nil)
	if err != nil {
		return nil, err
	}
	s.Tree = tree

	if len(s.paths) == 0 && len(s.collections) == 0 {
		return nil, errs.NewSchemaError(t, "", "no exported fields to store", nil)
	}
	return s, nil
}

type builder struct {
	schema *Schema
	stack  map[reflect.Type]bool
}

func (b *builder) walk(t reflect.Type, prefix string, chain []hop, pending []int) ([]*Node, error) {
	b.stack[t] = true
	defer delete(b.stack, t)

	var nodes []*Node
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, skip := segmentName(f)
		if skip {
			continue
		}
		if !f.IsExported() {
			if f.Anonymous && f.Type.Kind() == reflect.Pointer && isComposite(f.Type) {
				return nil, errs.NewSchemaError(t, f.Name, "unexported embedded pointer cannot be allocated", nil)
			}
			if !promoted(f) {
				continue
			}
		}

		ft := f.Type
		path := prefix + name
		index := append(append([]int(nil), pending...), i)

		// Embedded structs are promoted into the parent, like Go field promotion.
		if promoted(f) {
			if b.stack[ft] {
				return nil, &errs.UnsupportedTypeError{Type: ft, Path: path, Reason: "cyclic type"}
			}
			inner, err := b.walk(ft, prefix, chain, index)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, inner...)
			continue
		}

		hops := append(append([]hop(nil), chain...), hop{index: index})

		switch {
		case codec.IsLeaf(ft):
			get, set := accessors(hops)
			p := &Path{Name: path, Type: ft, get: get, set: set}
			if err := b.schema.addPath(p); err != nil {
				return nil, err
			}
			nodes = append(nodes, &Node{Kind: KindLeaf, Name: name, Path: path, Type: ft, Leaf: p})

		case isComposite(ft):
			st := structOf(ft)
			if b.stack[st] {
				return nil, &errs.UnsupportedTypeError{Type: st, Path: path, Reason: "cyclic type"}
			}
			children, err := b.walk(st, path+".", hops, nil)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Node{Kind: KindComposite, Name: name, Path: path, Type: ft, Children: children})

		case ft.Kind() == reflect.Slice || ft.Kind() == reflect.Array:
			elem := ft.Elem()
			if !codec.IsLeaf(elem) && !isComposite(elem) {
				return nil, &errs.UnsupportedTypeError{Type: ft, Path: path, Reason: "collection element must be a leaf or a struct"}
			}
			get, set := accessors(hops)
			c := &Collection{Name: path, Type: ft, Elem: elem, get: get, set: set}
			b.schema.collections = append(b.schema.collections, c)
			nodes = append(nodes, &Node{Kind: KindCollection, Name: name, Path: path, Type: ft, Collection: c})

		default:
			return nil, &errs.UnsupportedTypeError{Type: ft, Path: path}
		}
	}
	return nodes, nil
}

// promoted reports an embedded struct whose fields belong to the parent.
func promoted(f reflect.StructField) bool {
	return f.Anonymous && f.Type.Kind() == reflect.Struct && !codec.IsLeaf(f.Type)
}

func segmentName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get(TagName)
	if idx := strings.Index(tag, ","); idx != -1 {
		tag = tag[:idx]
	}
	if tag == "-" {
		return "", true
	}
	if tag != "" && !strings.Contains(tag, ".") {
		return tag, false
	}
	return f.Name, false
}

func isComposite(t reflect.Type) bool {
	if codec.IsLeaf(t) {
		return false
	}
	return t.Kind() == reflect.Struct || (t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct)
}

func structOf(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// accessors binds a getter and a setter to a fixed chain of field hops.
func accessors(hops []hop) (func(reflect.Value) (reflect.Value, bool), func(reflect.Value, reflect.Value) error) {
	last := len(hops) - 1

	get := func(root reflect.Value) (reflect.Value, bool) {
		v := root
		for i, h := range hops {
			v = v.FieldByIndex(h.index)
			if i < last && v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}, false
				}
				v = v.Elem()
			}
		}
		return v, true
	}

	set := func(root, val reflect.Value) error {
		v := root
		for i, h := range hops {
			v = v.FieldByIndex(h.index)
			if i < last && v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return errs.ErrNilIntermediate
				}
				v = v.Elem()
			}
		}
		return assign(v, val)
	}
	return get, set
}

func rootGetter(root reflect.Value) (reflect.Value, bool) {
	return root, root.IsValid()
}

func rootSetter(root, v reflect.Value) error {
	return assign(root, v)
}

func assign(dst, v reflect.Value) error {
	if !dst.CanSet() {
		return errs.NewValidationError("", "target is not addressable", nil)
	}
	if !v.IsValid() {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	switch {
	case v.Type().AssignableTo(dst.Type()):
		dst.Set(v)
	case v.Type().ConvertibleTo(dst.Type()) && !runeConversion(v.Type(), dst.Type()):
		dst.Set(v.Convert(dst.Type()))
	default:
		return errs.NewValidationError("", "cannot assign "+v.Type().String()+" to "+dst.Type().String(), nil)
	}
	return nil
}

// runeConversion reports integer to string conversions, which reflect
// allows but which turn 42 into "*".
func runeConversion(from, to reflect.Type) bool {
	return to.Kind() == reflect.String && from.Kind() != reflect.String
}
