package dump

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a dump from JSON. Numbers keep their integer or real type.
func (c *JSONCodec) Parse(r io.Reader) (*Dump, error) {
	var d Dump
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if err := d.fromPortable(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Export exports a dump to JSON
func (c *JSONCodec) Export(d *Dump, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(d.portable()); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
