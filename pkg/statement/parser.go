package statement

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// maxStatementLines bounds how far a statement is accumulated before it is
// declared unterminated.
const maxStatementLines = 200

// SplitLines splits text on "\n", dropping a trailing "\r" from every line.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Parse returns every named import statement in text. Lines that fail to
// parse are skipped; use ParseLines to see them.
func Parse(text string) []ImportStatement {
	stmts, _ := ParseLines(SplitLines(text))
	return stmts
}

// ParseLines scans lines and returns the named import statements found,
// plus a Failure for each import line that does not fit the grammar.
func ParseLines(lines []string) ([]ImportStatement, []Failure) {
	var stmts []ImportStatement
	var failures []Failure
	for i := 0; i < len(lines); {
		stmt, next, err := ParseAt(lines, i)
		switch {
		case err == nil:
			stmts = append(stmts, *stmt)
		case stderrors.Is(err, ErrNotNamedImport):
		default:
			failures = append(failures, Failure{Line: i + 1, Err: err})
			next = i + 1
		}
		i = next
	}
	return stmts, failures
}

// startsImport reports whether line begins an import declaration, as opposed
// to a dynamic import() call or import.meta.
func startsImport(line string) bool {
	rest, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), "import")
	if !ok || rest == "" {
		return false
	}
	switch rest[0] {
	case ' ', '\t', '{', '*', '\'', '"':
		return true
	}
	return false
}

// ParseAt parses the statement starting at lines[i] (0-based). It returns
// the statement, the index of the first line after it, and an error.
// ErrNotNamedImport means the line is to be skipped; errors wrapping
// errors.ErrParseFailure mean it looked like an import but could not be read.
func ParseAt(lines []string, i int) (*ImportStatement, int, error) {
	if i < 0 || i >= len(lines) || !startsImport(lines[i]) {
		return nil, i + 1, ErrNotNamedImport
	}

	var (
		text string
		lx   lexResult
		end  int
	)
	for j := i; ; j++ {
		if j >= len(lines) || j-i >= maxStatementLines {
			return nil, i + 1, ErrUnterminated
		}
		if j == i {
			text = lines[j]
		} else {
			text += "\n" + lines[j]
		}

		var err error
		lx, err = lex(text)
		if stderrors.Is(err, errOpenComment) {
			continue
		}
		if err != nil {
			return nil, i + 1, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		if terminated(lx.tokens) {
			end = j
			break
		}
	}

	stmt, err := parseTokens(text, lx)
	if err != nil {
		return nil, end + 1, err
	}
	line := lines[i]
	stmt.Line = i + 1
	stmt.EndLine = end + 1
	stmt.Raw = text
	stmt.Indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	return stmt, end + 1, nil
}

// terminated reports whether toks hold a complete statement: a semicolon,
// a from clause followed by its module string, or a side-effect import.
func terminated(toks []token) bool {
	if len(toks) >= 2 && toks[1].kind == tokString {
		return true
	}
	for k, t := range toks {
		if t.is(tokPunct, ";") {
			return true
		}
		if t.is(tokIdent, "from") && k+1 < len(toks) && toks[k+1].kind == tokString {
			return true
		}
	}
	return false
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek(offset int) (token, bool) {
	if p.pos+offset >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos+offset], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek(0)
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) accept(kind tokenKind, text string) bool {
	if t, ok := p.peek(0); ok && t.is(kind, text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) ident() (string, bool) {
	if t, ok := p.peek(0); ok && t.kind == tokIdent {
		p.pos++
		return t.text, true
	}
	return "", false
}

func syntaxErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrSyntax}, args...)...)
}

func parseTokens(text string, lx lexResult) (*ImportStatement, error) {
	p := &parser{toks: lx.tokens}
	stmt := &ImportStatement{}

	if !p.accept(tokIdent, "import") {
		return nil, ErrNotNamedImport
	}
	if t, ok := p.peek(0); ok && t.kind == tokString {
		return nil, ErrNotNamedImport // side-effect import
	}

	// "type" is a modifier unless it is itself the default binding,
	// as in `import type from "m"` or `import type, { a } from "m"`.
	if t, ok := p.peek(0); ok && t.is(tokIdent, "type") {
		if n, ok := p.peek(1); ok && !n.is(tokIdent, "from") && !n.is(tokPunct, ",") && !n.is(tokPunct, "=") {
			stmt.TypeOnly = true
			p.pos++
		}
	}

	if p.accept(tokPunct, "*") {
		return nil, ErrNotNamedImport // namespace import
	}

	if name, ok := p.ident(); ok {
		if t, ok := p.peek(0); ok && t.is(tokPunct, "=") {
			return nil, ErrNotNamedImport // import x = require("m")
		}
		stmt.Default = name
		if !p.accept(tokPunct, ",") {
			return nil, ErrNotNamedImport // default-only import
		}
		if p.accept(tokPunct, "*") {
			return nil, ErrNotNamedImport // default plus namespace
		}
	}

	if !p.accept(tokPunct, "{") {
		return nil, syntaxErr("expected '{'")
	}
	names, err := p.parseNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 && stmt.Default == "" {
		return nil, ErrNotNamedImport
	}
	stmt.Names = names

	if !p.accept(tokIdent, "from") {
		return nil, syntaxErr("expected 'from'")
	}
	mod, ok := p.next()
	if !ok || mod.kind != tokString {
		return nil, syntaxErr("expected module path")
	}
	stmt.ModulePath = mod.text
	stmt.Quote = mod.quote
	last := mod
	if t, ok := p.peek(0); ok && t.is(tokPunct, ";") {
		stmt.Semicolon = true
		last = t
		p.pos++
	}
	if t, ok := p.peek(0); ok {
		return nil, syntaxErr("unexpected %q after import", t.text)
	}

	for _, c := range lx.comments {
		if c.offset < last.end {
			return nil, syntaxErr("comment inside import statement")
		}
	}
	stmt.Trailing = strings.TrimSpace(text[last.end:])
	return stmt, nil
}

// parseNames reads brace clause entries up to and including "}".
func (p *parser) parseNames() ([]BoundName, error) {
	var names []BoundName
	for {
		if p.accept(tokPunct, "}") {
			return names, nil
		}

		var b BoundName
		if t, ok := p.peek(0); ok && t.is(tokIdent, "type") {
			if n, ok := p.peek(1); ok && n.kind == tokIdent && (n.text != "as" || p.typeModifiesAs()) {
				b.IsTypeOnly = true
				p.pos++
			}
		}
		name, ok := p.ident()
		if !ok {
			t, _ := p.peek(0)
			return nil, syntaxErr("unexpected %q in import clause", t.text)
		}
		b.Name = name
		if p.accept(tokIdent, "as") {
			alias, ok := p.ident()
			if !ok {
				return nil, syntaxErr("expected alias after 'as'")
			}
			b.Alias = alias
		}
		names = append(names, b)

		if p.accept(tokPunct, ",") {
			continue
		}
		if t, ok := p.peek(0); !ok || !t.is(tokPunct, "}") {
			return nil, syntaxErr("expected ',' or '}'")
		}
	}
}

// typeModifiesAs disambiguates "type as ..." at the current position:
// `type as as x` and `type as,` / `type as }` import a binding named "as"
// with a type modifier, while `type as x` renames a binding named "type".
func (p *parser) typeModifiesAs() bool {
	t, ok := p.peek(2)
	if !ok {
		return false
	}
	return t.is(tokIdent, "as") || t.is(tokPunct, ",") || t.is(tokPunct, "}")
}
