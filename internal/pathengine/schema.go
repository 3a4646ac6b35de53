package pathengine

import (
	"fmt"
	"reflect"

	"github.com/amir734jj/Sqlite-ORM/internal/errs"
)

// Kind tags a node of the flattened type tree.
type Kind int

const (
	KindLeaf Kind = iota
	KindComposite
	KindCollection
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindComposite:
		return "composite"
	case KindCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Node is one field of a flattened type. Exactly one of Leaf, Children and
// Collection is set, according to Kind.
type Node struct {
	Kind Kind
	Name string       // segment name
	Path string       // full dotted path
	Type reflect.Type // declared field type

	Leaf       *Path
	Children   []*Node
	Collection *Collection
}

// Path is a leaf column reachable from the root type.
type Path struct {
	Name string
	Type reflect.Type

	get func(root reflect.Value) (reflect.Value, bool)
	set func(root, v reflect.Value) error
}

// Value reads the leaf from root. It reports false when a pointer on the
// way is nil.
func (p *Path) Value(root reflect.Value) (reflect.Value, bool) {
	return p.get(root)
}

// SetValue writes v into root, which must be addressable.
func (p *Path) SetValue(root, v reflect.Value) error {
	return p.set(root, v)
}

// Collection is a slice or array field stored in its own table.
type Collection struct {
	Name string
	Type reflect.Type
	Elem reflect.Type

	get func(root reflect.Value) (reflect.Value, bool)
	set func(root, v reflect.Value) error
}

// Value reads the collection field from root.
func (c *Collection) Value(root reflect.Value) (reflect.Value, bool) {
	return c.get(root)
}

// SetValue writes v into the collection field of root.
func (c *Collection) SetValue(root, v reflect.Value) error {
	return c.set(root, v)
}

// Schema is the flattened form of a root type: ordered leaf paths plus the
// collection fields that do not fit in a row.
type Schema struct {
	Root reflect.Type
	Tree []*Node

	paths       []*Path
	index       map[string]*Path
	collections []*Collection
}

// Paths returns the leaf paths in declaration order.
func (s *Schema) Paths() []*Path { return s.paths }

// Collections returns the collection fields in declaration order.
func (s *Schema) Collections() []*Collection { return s.collections }

// Path looks up a leaf path by its dotted name.
func (s *Schema) Path(name string) (*Path, bool) {
	p, ok := s.index[name]
	return p, ok
}

// Value reads the leaf at path from root. Unknown paths and nil
// intermediate objects both report false.
func (s *Schema) Value(path string, root reflect.Value) (reflect.Value, bool) {
	p, ok := s.index[path]
	if !ok {
		return reflect.Value{}, false
	}
	return p.get(root)
}

// SetValue writes v at path into root.
func (s *Schema) SetValue(path string, root, v reflect.Value) error {
	p, ok := s.index[path]
	if !ok {
		return errs.NewValidationError(path, fmt.Sprintf("not a property of %v", s.Root), nil)
	}
	return p.set(root, v)
}

func (s *Schema) addPath(p *Path) error {
	if _, dup := s.index[p.Name]; dup {
		return errs.NewSchemaError(s.Root, p.Name, "duplicate property path", nil)
	}
	s.paths = append(s.paths, p)
	s.index[p.Name] = p
	return nil
}
