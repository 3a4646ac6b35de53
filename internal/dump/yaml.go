package dump

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports a dump from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*Dump, error) {
	var d Dump
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := d.fromPortable(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Export exports a dump to YAML
func (c *YAMLCodec) Export(d *Dump, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(d.portable()); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
