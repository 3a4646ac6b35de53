package dump

import (
	"fmt"
	"io"
)

// Importer reads a dump written in one format
type Importer interface {
	Parse(r io.Reader) (*Dump, error)
	Format() string
}

// Exporter writes a dump in one format
type Exporter interface {
	Export(d *Dump, w io.Writer) error
	Format() string
}

// Codec is both directions of one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec named by format: "json" or "yaml"
func ForFormat(format string) (Codec, error) {
	switch format {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unknown dump format %q", format)
}
