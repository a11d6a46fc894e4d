package scanner

import (
	"regexp"
	"strings"

	"github.com/storenav/storenav/pkg/types"
)

// Recognized grammars. These are deliberate single-line pattern matches over
// raw text, not a parser: matches inside string literals or comments are an
// accepted limitation of the contract. Do not broaden to full-language
// parsing, it changes observable matching behavior.
var (
	// export (const|let|var) <identifier> =
	exportRE = regexp.MustCompile(`export\s+(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=`)

	// import { a, b as c, ... } from "<spec>"
	importRE = regexp.MustCompile(`import\s*\{([^}]*)\}\s*from\s*['"]([^'"]+)['"]`)

	// this.<identifier>
	accessRE = regexp.MustCompile(`this\.([A-Za-z_$][A-Za-z0-9_$]*)`)
)

// Export is one exported store binding found in a store file
type Export struct {
	Name string
	Loc  types.Location // span of the identifier token
}

// ImportedName is one binding inside an import clause
type ImportedName struct {
	Name  string         // exported name in the source module
	Alias string         // local alias; equals Name when not renamed
	Loc   types.Location // span of the exported-name token inside the clause
}

// ImportDecl is one named-import declaration
type ImportDecl struct {
	Specifier string
	Names     []ImportedName
}

// Scanner extracts store declarations, imports, and property accesses from
// raw source text
type Scanner struct{}

// New creates a new Scanner instance
func New() *Scanner {
	return &Scanner{}
}

// ScanExports returns every `export (const|let|var) <identifier> =`
// declaration in the text, anywhere, at any nesting depth.
func (s *Scanner) ScanExports(path, text string) []Export {
	idx := newLineIndex(text)
	matches := exportRE.FindAllStringSubmatchIndex(text, -1)
	exports := make([]Export, 0, len(matches))

	for _, m := range matches {
		// m[2]:m[3] is the identifier capture group
		exports = append(exports, Export{
			Name: text[m[2]:m[3]],
			Loc:  idx.location(path, m[2], m[3], types.RefDefinition),
		})
	}

	return exports
}

// ScanDefinitions returns the identifier span of every
// `export (const|let|var) <name>` occurrence for the given name. Multiple
// declarations are legitimate and all are returned.
func (s *Scanner) ScanDefinitions(path, text, name string) []types.Location {
	re := regexp.MustCompile(`export\s+(?:const|let|var)\s+(` + regexp.QuoteMeta(name) + `)\b`)
	idx := newLineIndex(text)

	var locs []types.Location
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		locs = append(locs, idx.location(path, m[2], m[3], types.RefDefinition))
	}

	return locs
}

// ScanImports returns every named-import declaration in the text. Only the
// literal specifier and the name list are extracted; resolution is the
// caller's concern.
func (s *Scanner) ScanImports(path, text string) []ImportDecl {
	idx := newLineIndex(text)
	matches := importRE.FindAllStringSubmatchIndex(text, -1)
	decls := make([]ImportDecl, 0, len(matches))

	for _, m := range matches {
		clauseStart := m[2]
		clause := text[m[2]:m[3]]
		decl := ImportDecl{
			Specifier: text[m[4]:m[5]],
			Names:     parseNameList(path, clause, clauseStart, idx),
		}
		if len(decl.Names) > 0 {
			decls = append(decls, decl)
		}
	}

	return decls
}

// ScanAccesses returns the identifier span of every `this.<name>` occurrence
// for the given name.
func (s *Scanner) ScanAccesses(path, text, name string) []types.Location {
	idx := newLineIndex(text)

	var locs []types.Location
	for _, m := range accessRE.FindAllStringSubmatchIndex(text, -1) {
		if text[m[2]:m[3]] != name {
			continue
		}
		locs = append(locs, idx.location(path, m[2], m[3], types.RefAccess))
	}

	return locs
}

// parseNameList splits the inside of an import clause into bindings,
// tracking byte offsets so each exported-name token gets an exact span.
func parseNameList(path, clause string, clauseStart int, idx *lineIndex) []ImportedName {
	var names []ImportedName

	offset := 0
	for _, entry := range strings.Split(clause, ",") {
		entryStart := offset
		offset += len(entry) + 1 // account for the consumed comma

		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		nameStart := entryStart + strings.Index(entry, trimmed)

		name := trimmed
		alias := trimmed
		if at := strings.Index(trimmed, " as "); at >= 0 {
			name = strings.TrimSpace(trimmed[:at])
			alias = strings.TrimSpace(trimmed[at+len(" as "):])
		}
		if name == "" || alias == "" {
			continue
		}

		start := clauseStart + nameStart
		names = append(names, ImportedName{
			Name:  name,
			Alias: alias,
			Loc:   idx.location(path, start, start+len(name), types.RefImport),
		})
	}

	return names
}

// lineIndex maps byte offsets to 1-based line/column positions
type lineIndex struct {
	// starts[i] is the byte offset of the first character of line i+1
	starts []int
}

func newLineIndex(text string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

// position converts a byte offset to a 1-based Position
func (li *lineIndex) position(offset int) types.Position {
	// Binary search for the line containing the offset
	lo, hi := 0, len(li.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if li.starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return types.Position{
		Line:   lo + 1,
		Column: offset - li.starts[lo] + 1,
	}
}

func (li *lineIndex) location(path string, start, end int, kind types.RefKind) types.Location {
	return types.Location{
		Path:  path,
		Start: li.position(start),
		End:   li.position(end),
		Kind:  kind,
	}
}
