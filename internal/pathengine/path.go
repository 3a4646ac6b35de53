package pathengine

import (
	"errors"
	"fmt"
	"strings"
)

// ParsePath splits a dotted property path into its segments.
// Supports: "Field", "Nested.Field", "A.B.C".
func ParsePath(path string) ([]string, error) {
	if path == "" {
		return nil, errors.New("empty path")
	}

	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("invalid path %q: empty segment", path)
		}
		if !isValidIdent(seg) {
			return nil, fmt.Errorf("invalid path %q: invalid identifier %q", path, seg)
		}
	}
	return segments, nil
}

// JoinPath is the inverse of ParsePath.
func JoinPath(segments ...string) string {
	return strings.Join(segments, ".")
}

// isValidIdent checks if a string is a valid Go identifier.
func isValidIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return false
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
