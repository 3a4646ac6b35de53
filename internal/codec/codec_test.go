package codec

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amir734jj/Sqlite-ORM/internal/errs"
)

type status string

type point struct{ X, Y int }

func TestIsLeaf(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want bool
	}{
		{"int", reflect.TypeFor[int](), true},
		{"uint64", reflect.TypeFor[uint64](), true},
		{"float32", reflect.TypeFor[float32](), true},
		{"string", reflect.TypeFor[string](), true},
		{"named string", reflect.TypeFor[status](), true},
		{"bool", reflect.TypeFor[bool](), true},
		{"time", reflect.TypeFor[time.Time](), true},
		{"bytes", reflect.TypeFor[[]byte](), true},
		{"uuid", reflect.TypeFor[uuid.UUID](), true},
		{"pointer to int", reflect.TypeFor[*int](), true},
		{"struct", reflect.TypeFor[point](), false},
		{"pointer to struct", reflect.TypeFor[*point](), false},
		{"slice of strings", reflect.TypeFor[[]string](), false},
		{"map", reflect.TypeFor[map[string]int](), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLeaf(tt.typ))
		})
	}
}

func TestStorage(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want StorageClass
	}{
		{reflect.TypeFor[int32](), Integer},
		{reflect.TypeFor[uint16](), Integer},
		{reflect.TypeFor[int](), Numeric},
		{reflect.TypeFor[int64](), Numeric},
		{reflect.TypeFor[float64](), Real},
		{reflect.TypeFor[float32](), Real},
		{reflect.TypeFor[string](), Text},
		{reflect.TypeFor[bool](), Text},
		{reflect.TypeFor[time.Time](), Text},
		{reflect.TypeFor[*time.Time](), Text},
		{reflect.TypeFor[[]byte](), Blob},
		{reflect.TypeFor[uuid.UUID](), Text},
	}

	for _, tt := range tests {
		got, err := Storage(tt.typ)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Storage(%v)", tt.typ)
	}

	_, err := Storage(reflect.TypeFor[point]())
	var unsupported *errs.UnsupportedTypeError
	assert.True(t, errors.As(err, &unsupported))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	answer := 42
	when := time.Date(2024, 3, 9, 17, 4, 5, 123456789, time.UTC)

	values := []any{
		true,
		false,
		int(-7),
		int8(math.MinInt8),
		int16(12345),
		int32('x'),
		int64(math.MaxInt64),
		uint(7),
		uint8(255),
		uint64(math.MaxUint64),
		float32(3.25),
		float64(-0.1),
		"it's quoted",
		status("active"),
		when,
		[]byte{0, 1, 2, 254},
		uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		&answer,
	}

	for _, v := range values {
		rv := reflect.ValueOf(v)
		t.Run(rv.Type().String(), func(t *testing.T) {
			raw, err := Encode(rv)
			require.NoError(t, err)

			back, err := Decode(raw, rv.Type())
			require.NoError(t, err)
			assert.Equal(t, v, back.Interface())
		})
	}
}

func TestEncodeNilPointerIsNull(t *testing.T) {
	var p *string
	raw, err := Encode(reflect.ValueOf(p))
	require.NoError(t, err)
	assert.Nil(t, raw)

	back, err := Decode(nil, reflect.TypeFor[*string]())
	require.NoError(t, err)
	assert.True(t, back.IsNil())
}

func TestEncodeRepresentations(t *testing.T) {
	raw, err := Encode(reflect.ValueOf(true))
	require.NoError(t, err)
	assert.Equal(t, "true", raw)

	local := time.Date(2020, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	raw, err = Encode(reflect.ValueOf(local))
	require.NoError(t, err)
	assert.Equal(t, "2020-01-02T02:04:05Z", raw)
}

func TestDecodeCoercions(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		typ  reflect.Type
		want any
	}{
		{"text to int", "30", reflect.TypeFor[int](), 30},
		{"integral real to int", float64(4), reflect.TypeFor[int](), 4},
		{"integer to float", int64(2), reflect.TypeFor[float64](), 2.0},
		{"integer to bool", int64(1), reflect.TypeFor[bool](), true},
		{"blob to string", []byte("abc"), reflect.TypeFor[string](), "abc"},
		{"integer to string", int64(12), reflect.TypeFor[string](), "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}

func TestDecodeOverflow(t *testing.T) {
	_, err := Decode(int64(300), reflect.TypeFor[int8]())
	assert.Error(t, err)

	_, err = Decode("not a number", reflect.TypeFor[int]())
	assert.Error(t, err)
}

func TestEncodeAs(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   reflect.Type
		want  any
	}{
		{"same type", 30, reflect.TypeFor[int](), int64(30)},
		{"widened", int32(30), reflect.TypeFor[int64](), int64(30)},
		{"parsed", "30", reflect.TypeFor[int](), int64(30)},
		{"named string", "active", reflect.TypeFor[status](), "active"},
		{"bool text", "true", reflect.TypeFor[bool](), "true"},
		{"pointer column", 5, reflect.TypeFor[*int](), int64(5)},
		{"nil", nil, reflect.TypeFor[string](), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeAs(tt.value, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := EncodeAs(12, reflect.TypeFor[string]())
	assert.Error(t, err, "int must not silently become a rune string")
}

func TestEncodeAsRejectsLossyNumbers(t *testing.T) {
	lossy := []struct {
		name  string
		value any
		typ   reflect.Type
	}{
		{"fraction into int", 3.7, reflect.TypeFor[int]()},
		{"fraction into pointer column", float32(0.5), reflect.TypeFor[*int64]()},
		{"too wide for uint8", 300, reflect.TypeFor[uint8]()},
		{"negative into uint32", -1, reflect.TypeFor[uint32]()},
		{"too wide for int16", int64(1 << 20), reflect.TypeFor[int16]()},
		{"too large for float32", 1e300, reflect.TypeFor[float32]()},
		{"unsigned past int64", uint64(math.MaxUint64), reflect.TypeFor[int64]()},
	}
	for _, tt := range lossy {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeAs(tt.value, tt.typ)
			assert.Error(t, err)
		})
	}

	exact := []struct {
		name  string
		value any
		typ   reflect.Type
		want  any
	}{
		{"whole float into int", 3.0, reflect.TypeFor[int](), int64(3)},
		{"fits uint8", 255, reflect.TypeFor[uint8](), int64(255)},
		{"narrowed float", 0.5, reflect.TypeFor[float32](), 0.5},
		{"int into float", 7, reflect.TypeFor[float64](), 7.0},
	}
	for _, tt := range exact {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeAs(tt.value, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type celsius struct{ degrees float64 }

func TestRegisterType(t *testing.T) {
	typ := reflect.TypeFor[celsius]()
	require.False(t, IsLeaf(typ))

	err := RegisterType(Real,
		func(c celsius) (string, error) { return strings.TrimSuffix(formatFloat(c.degrees), ".0") + "C", nil },
		func(s string) (celsius, error) {
			f, err := parseFloat(strings.TrimSuffix(s, "C"))
			return celsius{degrees: f}, err
		})
	require.NoError(t, err)
	t.Cleanup(func() { Unregister(typ) })

	assert.True(t, IsLeaf(typ))
	class, err := Storage(typ)
	require.NoError(t, err)
	assert.Equal(t, Real, class)

	raw, err := Encode(reflect.ValueOf(celsius{degrees: 21.5}))
	require.NoError(t, err)
	assert.Equal(t, "21.5C", raw)

	back, err := Decode(raw, typ)
	require.NoError(t, err)
	assert.Equal(t, celsius{degrees: 21.5}, back.Interface())
}

func TestRegisterRejectsIncompleteCodec(t *testing.T) {
	err := Register(reflect.TypeFor[celsius](), Custom{Encode: func(any) (string, error) { return "", nil }})
	assert.Error(t, err)
	assert.False(t, IsLeaf(reflect.TypeFor[celsius]()))
}

func formatFloat(f float64) string {
	s, _ := asString(f)
	return s
}
