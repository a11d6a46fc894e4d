package types

import (
	"fmt"
)

// RefKind classifies how a location refers to a store name
type RefKind string

const (
	RefDefinition RefKind = "definition" // export declaration in the store file
	RefImport     RefKind = "import"     // name inside an import clause
	RefAccess     RefKind = "access"     // this.<name> property access
)

// Position represents a location in source text.
// Lines and columns are 1-based; columns count bytes.
type Position struct {
	Line   int
	Column int
}

// Location identifies a source span within a file
type Location struct {
	Path  string
	Start Position
	End   Position
	Kind  RefKind
}

// Key returns the deduplication key for a location. Two references to the
// same (file, line, column) are the same reference regardless of kind.
func (l Location) Key() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Start.Line, l.Start.Column)
}

// ValidateKind checks if the reference kind is valid
func (l *Location) ValidateKind() error {
	switch l.Kind {
	case RefDefinition, RefImport, RefAccess:
		return nil
	default:
		return ErrInvalidRefKind
	}
}

// Validate performs comprehensive validation of the location
func (l *Location) Validate() error {
	if l.Path == "" {
		return ErrEmptyPath
	}

	if err := l.ValidateKind(); err != nil {
		return err
	}

	if l.Start.Line <= 0 || l.End.Line <= 0 {
		return fmt.Errorf("%w: line numbers must be positive", ErrInvalidPosition)
	}

	if l.Start.Column <= 0 || l.End.Column <= 0 {
		return fmt.Errorf("%w: column numbers must be positive", ErrInvalidPosition)
	}

	if l.Start.Line > l.End.Line {
		return fmt.Errorf("%w: start line must be before or equal to end line", ErrInvalidPosition)
	}

	return nil
}

// DedupLocations removes duplicate locations keyed by (file, line, column),
// preserving first-seen order. When an import occurrence coincides with an
// access occurrence the first one reported wins.
func DedupLocations(locs []Location) []Location {
	seen := make(map[string]struct{}, len(locs))
	out := locs[:0]
	for _, loc := range locs {
		key := loc.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, loc)
	}
	return out
}
