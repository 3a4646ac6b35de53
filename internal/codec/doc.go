// Package codec converts leaf values to and from their stored form.
//
// A leaf is any type stored in a single column: booleans, integers, floats,
// strings (and named types of those kinds), time.Time, []byte, types that
// implement encoding.TextMarshaler and encoding.TextUnmarshaler, and types
// registered with Register. Registered codecs are consulted before the
// built-in conversions.
//
// # Storage classes
//
//	int8..int32, uint8..uint32        INTEGER
//	int, int64, uint, uint64          NUMERIC
//	float32, float64                  REAL
//	string, bool, time.Time, text     TEXT
//	[]byte                            BLOB
//	registered                        declared class, TEXT by default
//
// Booleans are stored as "true"/"false" and times as UTC RFC 3339 text, so
// both compare as plain text in filters.
package codec
