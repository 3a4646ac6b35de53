package codec

import (
	"bytes"
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Encode converts a leaf value into the argument bound to a statement
// placeholder: int64, float64, string, []byte or nil.
func Encode(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	t := v.Type()
	if c, ok := lookup(t); ok {
		return c.Encode(v.Interface())
	}
	if t.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
		t = v.Type()
		if c, ok := lookup(t); ok {
			return c.Encode(v.Interface())
		}
	}

	switch {
	case t == timeType:
		return v.Interface().(time.Time).UTC().Format(time.RFC3339Nano), nil
	case isBytes(t):
		if v.IsNil() {
			return nil, nil
		}
		return bytes.Clone(v.Bytes()), nil
	case isText(t):
		return encodeText(v)
	}

	switch t.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		// Stored as the int64 bit pattern so values above MaxInt64 survive.
		return int64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	}
	return nil, fmt.Errorf("codec: cannot encode %v", t)
}

func encodeText(v reflect.Value) (any, error) {
	var m encoding.TextMarshaler
	if v.Type().Implements(textMarshalerType) {
		m = v.Interface().(encoding.TextMarshaler)
	} else {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		m = p.Interface().(encoding.TextMarshaler)
	}
	b, err := m.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("codec: marshal %v: %w", v.Type(), err)
	}
	return string(b), nil
}

// Decode converts a value read from the database into t. A nil raw value
// decodes to the zero value of t (a nil pointer for pointer types).
func Decode(raw any, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	if raw == nil {
		return out, nil
	}

	if c, ok := lookup(t); ok {
		s, err := asString(raw)
		if err != nil {
			return out, err
		}
		val, err := c.Decode(s)
		if err != nil {
			return out, fmt.Errorf("codec: decode %v: %w", t, err)
		}
		return assign(val, t)
	}

	if t.Kind() == reflect.Pointer {
		elem, err := Decode(raw, t.Elem())
		if err != nil {
			return out, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	}

	switch {
	case t == timeType:
		tm, err := decodeTime(raw)
		if err != nil {
			return out, err
		}
		out.Set(reflect.ValueOf(tm))
		return out, nil
	case isBytes(t):
		var b []byte
		switch x := raw.(type) {
		case []byte:
			b = bytes.Clone(x)
		case string:
			b = []byte(x)
		default:
			return out, fmt.Errorf("codec: cannot decode %T into %v", raw, t)
		}
		out.Set(reflect.ValueOf(b).Convert(t))
		return out, nil
	case isText(t):
		s, err := asString(raw)
		if err != nil {
			return out, err
		}
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return out, fmt.Errorf("codec: unmarshal %v: %w", t, err)
		}
		return p.Elem(), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := toBool(raw)
		if err != nil {
			return out, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(raw)
		if err != nil {
			return out, err
		}
		if out.OverflowInt(n) {
			return out, fmt.Errorf("codec: %d overflows %v", n, t)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := toInt64(raw)
		if err != nil {
			return out, err
		}
		if out.OverflowUint(uint64(n)) {
			return out, fmt.Errorf("codec: %d overflows %v", uint64(n), t)
		}
		out.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(raw)
		if err != nil {
			return out, err
		}
		if out.OverflowFloat(f) {
			return out, fmt.Errorf("codec: %g overflows %v", f, t)
		}
		out.SetFloat(f)
	case reflect.String:
		s, err := asString(raw)
		if err != nil {
			return out, err
		}
		out.SetString(s)
	default:
		return out, fmt.Errorf("codec: cannot decode into %v", t)
	}
	return out, nil
}

// EncodeAs encodes a caller-supplied filter value for a column of leaf type
// t. Values of a compatible kind are converted; strings are parsed.
func EncodeAs(value any, t reflect.Type) (any, error) {
	if value == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Type() == t {
		return Encode(rv)
	}
	base := t
	if t.Kind() == reflect.Pointer {
		base = t.Elem()
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil, nil
			}
			rv = rv.Elem()
		}
	}
	if rv.Type() == base {
		return Encode(rv)
	}

	if _, custom := lookup(base); !custom && sameFamily(rv.Type(), base) {
		cv, err := convertExact(rv, base)
		if err != nil {
			return nil, err
		}
		return Encode(cv)
	}
	if s, ok := value.(string); ok {
		dv, err := Decode(s, base)
		if err != nil {
			return nil, err
		}
		return Encode(dv)
	}
	return nil, fmt.Errorf("codec: cannot use %T as %v", value, t)
}

// convertExact converts rv to t and fails when the value does not survive
// the conversion. Between float kinds only overflow is an error.
func convertExact(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	cv := rv.Convert(t)
	if !isNumber(rv.Kind()) {
		return cv, nil
	}
	if isFloat(rv.Kind()) && isFloat(t.Kind()) {
		if reflect.Zero(t).OverflowFloat(rv.Float()) {
			return cv, fmt.Errorf("codec: %v overflows %v", rv.Interface(), t)
		}
		return cv, nil
	}
	if !cv.Convert(rv.Type()).Equal(rv) {
		return cv, fmt.Errorf("codec: %v does not fit %v", rv.Interface(), t)
	}
	return cv, nil
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// sameFamily limits conversions to kinds where reflect.Convert keeps the
// meaning of the value (no int to string rune conversions).
func sameFamily(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	switch {
	case isNumber(from.Kind()) && isNumber(to.Kind()):
		return true
	case from.Kind() == reflect.String && to.Kind() == reflect.String:
		return true
	case from.Kind() == reflect.Bool && to.Kind() == reflect.Bool:
		return true
	case isBytes(from) && isBytes(to):
		return true
	}
	return false
}

func isNumber(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uintptr) || k == reflect.Float32 || k == reflect.Float64
}

func assign(val any, t reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(val)
	switch {
	case !rv.IsValid():
		return reflect.New(t).Elem(), nil
	case rv.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	case rv.Type().ConvertibleTo(t):
		return rv.Convert(t), nil
	}
	return reflect.New(t).Elem(), fmt.Errorf("codec: decoder for %v returned %T", t, val)
}

func asString(raw any) (string, error) {
	switch x := raw.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	}
	return "", fmt.Errorf("codec: cannot read %T as text", raw)
}

func toInt64(raw any) (int64, error) {
	switch x := raw.(type) {
	case int64:
		return x, nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("codec: %g is not an integer", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return parseInt(x)
	case []byte:
		return parseInt(string(x))
	}
	return 0, fmt.Errorf("codec: cannot read %T as integer", raw)
}

func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("codec: parse integer %q: %w", s, err)
	}
	return int64(u), nil
}

func toFloat64(raw any) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case string:
		return parseFloat(x)
	case []byte:
		return parseFloat(string(x))
	}
	return 0, fmt.Errorf("codec: cannot read %T as float", raw)
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("codec: parse float %q: %w", s, err)
	}
	return f, nil
}

func toBool(raw any) (bool, error) {
	switch x := raw.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case string:
		return parseBool(x)
	case []byte:
		return parseBool(string(x))
	}
	return false, fmt.Errorf("codec: cannot read %T as bool", raw)
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("codec: parse bool %q: %w", s, err)
	}
	return b, nil
}

func decodeTime(raw any) (time.Time, error) {
	switch x := raw.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		return parseTime(x)
	case []byte:
		return parseTime(string(x))
	}
	return time.Time{}, fmt.Errorf("codec: cannot read %T as time", raw)
}

func parseTime(s string) (time.Time, error) {
	tm, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("codec: parse time %q: %w", s, err)
	}
	return tm.UTC(), nil
}
