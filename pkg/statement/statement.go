// Package statement locates ES module import statements in source text and
// extracts their module path and bound names. It tokenizes only as much as an
// import statement needs and never builds a syntax tree for the whole file.
package statement

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/siyuan-infoblox/tsfix/pkg/errors"
)

// ErrNotNamedImport is returned for lines that are not a destructured named
// import: namespace imports, default-only imports, side-effect imports,
// require-style imports and anything that is not an import at all. Callers
// skip such lines without reporting them.
var ErrNotNamedImport = stderrors.New("not a named import")

// Parse failures. Both wrap errors.ErrParseFailure.
var (
	ErrUnterminated = fmt.Errorf("%w: unterminated import statement", errors.ErrParseFailure)
	ErrSyntax       = fmt.Errorf("%w: unsupported import syntax", errors.ErrParseFailure)
)

// BoundName is one entry of an import's brace clause.
type BoundName struct {
	Name       string // exported name
	Alias      string // local name when renamed with "as", empty otherwise
	IsTypeOnly bool   // written with an inline "type" modifier
}

// Local returns the identifier the entry introduces into scope.
func (b BoundName) Local() string {
	if b.Alias != "" {
		return b.Alias
	}
	return b.Name
}

// String renders the entry as it appears inside braces.
func (b BoundName) String() string {
	var sb strings.Builder
	if b.IsTypeOnly {
		sb.WriteString("type ")
	}
	sb.WriteString(b.Name)
	if b.Alias != "" {
		sb.WriteString(" as ")
		sb.WriteString(b.Alias)
	}
	return sb.String()
}

// ImportStatement is a named import parsed from source text.
type ImportStatement struct {
	Line       int    // 1-based line of the "import" keyword
	EndLine    int    // 1-based line holding the terminator
	Raw        string // the statement's source lines joined with "\n"
	Indent     string // leading whitespace of the first line
	ModulePath string
	Quote      byte // quote character around the module path
	Semicolon  bool // statement ends with ";"
	Default    string
	Names      []BoundName
	TypeOnly   bool   // "import type { ... }"
	Trailing   string // comment following the terminator on the last line
}

// Covers reports whether the 1-based line falls inside the statement.
func (s *ImportStatement) Covers(line int) bool {
	return line >= s.Line && line <= s.EndLine
}

// Find returns the bound name whose local or exported name is ident.
// Local names take precedence.
func (s *ImportStatement) Find(ident string) (BoundName, bool) {
	for _, n := range s.Names {
		if n.Local() == ident {
			return n, true
		}
	}
	for _, n := range s.Names {
		if n.Name == ident {
			return n, true
		}
	}
	return BoundName{}, false
}

// Failure records an import line that could not be parsed.
type Failure struct {
	Line int
	Err  error
}
