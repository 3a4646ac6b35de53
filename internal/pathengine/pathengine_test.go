package pathengine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amir734jj/Sqlite-ORM/internal/codec"
	"github.com/amir734jj/Sqlite-ORM/internal/errs"
)

type Base struct {
	ID int
}

type address struct {
	City string
	Zip  *int
}

type pet struct {
	Name string
}

type person struct {
	Base
	Name    string
	Born    time.Time
	Home    address
	Work    *address
	Tags    []string
	Pets    []pet
	Secret  string `orm:"-"`
	Nick    string `orm:"Alias"`
	private int
}

type node struct {
	Label string
	Next  *node
}

type withMap struct {
	Attrs map[string]string
}

type duplicate struct {
	Base
	ID int
}

type empty struct {
	hidden string
}

type docBase struct {
	ID   int
	Kind string
}

type doc struct {
	docBase
	Title string
}

type docRef struct {
	*docBase
	Title string
}

func names(s *Schema) []string {
	out := make([]string, len(s.Paths()))
	for i, p := range s.Paths() {
		out[i] = p.Name
	}
	return out
}

func TestFlatten(t *testing.T) {
	s, err := Flatten(reflect.TypeFor[person]())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ID", "Name", "Born", "Home.City", "Home.Zip", "Work.City", "Work.Zip", "Alias",
	}, names(s))

	var cols []string
	for _, c := range s.Collections() {
		cols = append(cols, c.Name)
	}
	assert.Equal(t, []string{"Tags", "Pets"}, cols)
	assert.Equal(t, reflect.TypeFor[pet](), s.Collections()[1].Elem)

	p, ok := s.Path("Home.Zip")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[*int](), p.Type)
}

func TestFlattenTree(t *testing.T) {
	s, err := Flatten(reflect.TypeFor[person]())
	require.NoError(t, err)

	kinds := map[string]Kind{}
	for _, n := range s.Tree {
		kinds[n.Path] = n.Kind
	}
	assert.Equal(t, KindLeaf, kinds["ID"])
	assert.Equal(t, KindComposite, kinds["Home"])
	assert.Equal(t, KindComposite, kinds["Work"])
	assert.Equal(t, KindCollection, kinds["Tags"])
	assert.Equal(t, "collection", KindCollection.String())

	for _, n := range s.Tree {
		switch n.Kind {
		case KindLeaf:
			require.NotNil(t, n.Leaf, n.Path)
			p, ok := s.Path(n.Path)
			require.True(t, ok)
			assert.Same(t, p, n.Leaf)
		case KindComposite:
			assert.NotEmpty(t, n.Children, n.Path)
			assert.Equal(t, n.Path+".City", n.Children[0].Path)
		case KindCollection:
			require.NotNil(t, n.Collection, n.Path)
			assert.Equal(t, n.Path, n.Collection.Name)
		}
	}
}

func TestFlattenUnexportedEmbedded(t *testing.T) {
	s, err := Flatten(reflect.TypeFor[doc]())
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Kind", "Title"}, names(s))

	root := reflect.ValueOf(&doc{}).Elem()
	require.NoError(t, s.SetValue("ID", root, reflect.ValueOf(4)))
	require.NoError(t, s.SetValue("Kind", root, reflect.ValueOf("memo")))
	v, ok := s.Value("Kind", root)
	require.True(t, ok)
	assert.Equal(t, "memo", v.Interface())
	assert.Equal(t, 4, root.Interface().(doc).ID)

	d := &doc{Title: "x"}
	require.NoError(t, SetValue("Kind", d, "note"))
	got, ok, err := GetValue("Kind", d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "note", got)

	_, err = Flatten(reflect.TypeFor[docRef]())
	var serr *errs.SchemaError
	assert.True(t, errors.As(err, &serr), "got %v", err)
}

func TestFlattenLeafRoot(t *testing.T) {
	s, err := Flatten(reflect.TypeFor[string]())
	require.NoError(t, err)
	assert.Equal(t, []string{ValuePath}, names(s))

	root := reflect.New(reflect.TypeFor[string]()).Elem()
	require.NoError(t, s.SetValue(ValuePath, root, reflect.ValueOf("hello")))
	v, ok := s.Value(ValuePath, root)
	require.True(t, ok)
	assert.Equal(t, "hello", v.Interface())
}

func TestFlattenErrors(t *testing.T) {
	tests := []struct {
		name        string
		typ         reflect.Type
		unsupported bool
	}{
		{"cycle", reflect.TypeFor[node](), true},
		{"map field", reflect.TypeFor[withMap](), true},
		{"map root", reflect.TypeFor[map[string]int](), false},
		{"duplicate promoted path", reflect.TypeFor[duplicate](), false},
		{"no exported fields", reflect.TypeFor[empty](), false},
		{"nil type", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flatten(tt.typ)
			require.Error(t, err)

			if tt.unsupported {
				var target *errs.UnsupportedTypeError
				assert.True(t, errors.As(err, &target), "got %v", err)
			} else {
				var target *errs.SchemaError
				assert.True(t, errors.As(err, &target), "got %v", err)
			}
		})
	}
}

func TestSchemaValueNilIntermediate(t *testing.T) {
	s, err := Flatten(reflect.TypeFor[person]())
	require.NoError(t, err)

	root := reflect.ValueOf(&person{}).Elem()
	_, ok := s.Value("Work.City", root)
	assert.False(t, ok)

	_, ok = s.Value("Unknown", root)
	assert.False(t, ok)

	err = s.SetValue("Work.City", root, reflect.ValueOf("Oslo"))
	assert.ErrorIs(t, err, errs.ErrNilIntermediate)

	err = s.SetValue("Unknown", root, reflect.ValueOf("Oslo"))
	var verr *errs.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestRoundTripThroughCodec(t *testing.T) {
	zip := 75001
	original := person{
		Base: Base{ID: 7},
		Name: "Ann",
		Born: time.Date(1990, 5, 17, 8, 30, 0, 0, time.UTC),
		Home: address{City: "Paris", Zip: &zip},
		Work: &address{City: "Lyon"},
		Nick: "annie",
	}

	s, err := Flatten(reflect.TypeFor[person]())
	require.NoError(t, err)

	stored := map[string]any{}
	src := reflect.ValueOf(original)
	for _, p := range s.Paths() {
		v, ok := p.Value(src)
		require.True(t, ok, p.Name)
		raw, err := codec.Encode(v)
		require.NoError(t, err, p.Name)
		stored[p.Name] = raw
	}

	dst := MaterializeDefault(reflect.TypeFor[person]())
	for _, p := range s.Paths() {
		v, err := codec.Decode(stored[p.Name], p.Type)
		require.NoError(t, err, p.Name)
		require.NoError(t, p.SetValue(dst, v), p.Name)
	}

	got := dst.Interface().(person)
	if !assert.Equal(t, original, got) {
		t.Log(spew.Sdump(stored))
	}
}

func TestCollectionAccessors(t *testing.T) {
	s, err := Flatten(reflect.TypeFor[person]())
	require.NoError(t, err)

	root := reflect.ValueOf(&person{Tags: []string{"a"}}).Elem()
	tags := s.Collections()[0]

	v, ok := tags.Value(root)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, v.Interface())

	require.NoError(t, tags.SetValue(root, reflect.ValueOf([]string{"b", "c"})))
	assert.Equal(t, []string{"b", "c"}, root.Interface().(person).Tags)
}

func TestMaterializeDefault(t *testing.T) {
	v := MaterializeDefault(reflect.TypeFor[person]())
	p := v.Interface().(person)
	require.NotNil(t, p.Work)
	assert.Nil(t, p.Home.Zip, "leaf pointers stay nil")
	assert.Nil(t, p.Tags)

	n := MaterializeDefault(reflect.TypeFor[node]()).Interface().(node)
	assert.Nil(t, n.Next)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path    string
		want    []string
		wantErr bool
	}{
		{"Name", []string{"Name"}, false},
		{"Home.City", []string{"Home", "City"}, false},
		{"_a.b_2", []string{"_a", "b_2"}, false},
		{"", nil, true},
		{"Home..City", nil, true},
		{"Home.", nil, true},
		{"1st", nil, true},
		{"with space", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParsePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.path, JoinPath(got...))
		})
	}
}

func TestGetValue(t *testing.T) {
	p := person{Base: Base{ID: 3}, Home: address{City: "Paris"}, Nick: "annie"}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"ID", 3, true},
		{"Home.City", "Paris", true},
		{"Alias", "annie", true},
		{"Work.City", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok, err := GetValue(tt.path, &p)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, _, err := GetValue("Nope", p)
	var verr *errs.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, _, err = GetValue("Name.Inner", p)
	assert.Error(t, err)
}

func TestSetValue(t *testing.T) {
	var p person
	require.NoError(t, SetValue("Home.City", &p, "Rome"))
	require.NoError(t, SetValue("ID", &p, 9))
	require.NoError(t, SetValue("Alias", &p, "nick"))
	assert.Equal(t, "Rome", p.Home.City)
	assert.Equal(t, 9, p.ID)
	assert.Equal(t, "nick", p.Nick)

	err := SetValue("Work.City", &p, "Oslo")
	assert.ErrorIs(t, err, errs.ErrNilIntermediate)

	assert.Error(t, SetValue("Home.City", p, "Rome"), "non-pointer target")
	assert.Error(t, SetValue("Home.City", &p, 42), "incompatible value")
}

func TestElementType(t *testing.T) {
	tests := []struct {
		typ    reflect.Type
		want   reflect.Type
		wantOK bool
	}{
		{reflect.TypeFor[[]pet](), reflect.TypeFor[pet](), true},
		{reflect.TypeFor[[3]string](), reflect.TypeFor[string](), true},
		{reflect.TypeFor[*[]int](), reflect.TypeFor[int](), true},
		{reflect.TypeFor[string](), nil, false},
	}

	for _, tt := range tests {
		got, ok := ElementType(tt.typ)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.typ)
		assert.Equal(t, tt.want, got, "%v", tt.typ)
	}
}
