// Package navigation turns request paths into navigation instructions and
// resolves them against live data through the metamodel's accessor tables.
package navigation

import (
	"strings"
)

const separator = "/"

// Path is a parsed navigation instruction: a type name, an optional identifier
// literal and an ordered chain of field names.
type Path struct {
	TypeName string
	ID       string
	HasID    bool
	Fields   []string
}

// Parse splits a raw request path. A single leading separator is ignored.
// The type segment is required and no segment may be empty, so trailing
// separators and doubled separators are rejected.
func Parse(raw string) (*Path, error) {
	trimmed := strings.TrimPrefix(raw, separator)
	if trimmed == "" {
		return nil, newError(KindInvalidPath, 0, "", "path %q has no type segment", raw)
	}

	segments := strings.Split(trimmed, separator)
	for i, seg := range segments {
		if seg == "" {
			return nil, newError(KindInvalidPath, i, seg, "path %q has an empty segment at position %d", raw, i)
		}
	}

	p := &Path{TypeName: segments[0]}
	if len(segments) > 1 {
		p.ID = segments[1]
		p.HasID = true
	}
	if len(segments) > 2 {
		p.Fields = append([]string(nil), segments[2:]...)
	}
	return p, nil
}

// IsListing reports whether the path addresses every instance of a type
func (p *Path) IsListing() bool {
	return !p.HasID
}

// Depth returns the number of field segments
func (p *Path) Depth() int {
	return len(p.Fields)
}

// String reassembles the path
func (p *Path) String() string {
	segments := []string{p.TypeName}
	if p.HasID {
		segments = append(segments, p.ID)
	}
	segments = append(segments, p.Fields...)
	return separator + strings.Join(segments, separator)
}
