package statement

import (
	stderrors "errors"
	"strings"
)

// Specifier is the module path of an import declaration or of an
// "export ... from" re-export.
type Specifier struct {
	Line  int    // 1-based line holding the module path
	Path  string // module path as written, without quotes
	Start int    // byte offset of the path in the scanned text
	End   int    // byte offset just past the path
}

type scanState int

const (
	scanReject scanState = iota
	scanMore
	scanDone
)

// Specifiers returns the module paths of the import declarations, side-effect
// imports included, and of the "export ... from" re-exports in text, in order.
// A declaration must start its line. Paths inside comments, other strings,
// dynamic import() calls and local export statements are never reported.
func Specifiers(text string) []Specifier {
	starts := []int{0}
	for k := 0; k < len(text); k++ {
		if text[k] == '\n' {
			starts = append(starts, k+1)
		}
	}
	lineEnd := func(i int) int {
		if i+1 < len(starts) {
			return starts[i+1] - 1
		}
		return len(text)
	}

	var out []Specifier
	for i := 0; i < len(starts); {
		base := starts[i]
		if !startsDeclaration(text[base:lineEnd(i)]) {
			i++
			continue
		}
		next := i + 1
		for j := i; j < len(starts) && j-i < maxStatementLines; j++ {
			lx, err := lex(text[base:lineEnd(j)])
			if stderrors.Is(err, errOpenComment) {
				continue
			}
			mod, state := matchSpecifier(lx.tokens)
			if state == scanMore {
				if err != nil {
					break
				}
				continue
			}
			if state == scanDone {
				end := base + mod.end - 1
				s := Specifier{Path: mod.text, Start: end - len(mod.text), End: end}
				s.Line = strings.Count(text[:s.Start], "\n") + 1
				out = append(out, s)
				next = s.Line
			}
			break
		}
		i = next
	}
	return out
}

// startsDeclaration reports whether line begins an import declaration or an
// export that may re-export from another module.
func startsDeclaration(line string) bool {
	if startsImport(line) {
		return true
	}
	rest, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), "export")
	return ok && rest != "" && strings.ContainsRune(" \t{*", rune(rest[0]))
}

// matchSpecifier reads the tokens of a declaration candidate and returns the
// module path token once the declaration is complete. scanMore means the
// tokens end before the declaration does.
func matchSpecifier(toks []token) (token, scanState) {
	p := &parser{toks: toks}
	isImport := p.accept(tokIdent, "import")
	if !isImport && !p.accept(tokIdent, "export") {
		return token{}, scanReject
	}

	t, ok := p.peek(0)
	if !ok {
		return token{}, scanMore
	}
	if isImport && t.kind == tokString {
		return t, scanDone // side-effect import
	}
	if t.is(tokIdent, "type") {
		n, ok := p.peek(1)
		if !ok {
			return token{}, scanMore
		}
		if !n.is(tokIdent, "from") && !n.is(tokPunct, ",") && !n.is(tokPunct, "=") {
			p.pos++
		}
	}

	for {
		if state := p.clauseElement(isImport); state != scanDone {
			return token{}, state
		}
		t, ok := p.next()
		switch {
		case !ok:
			return token{}, scanMore
		case t.is(tokPunct, ","):
			continue
		case t.is(tokIdent, "from"):
			mod, ok := p.next()
			if !ok {
				return token{}, scanMore
			}
			if mod.kind != tokString {
				return token{}, scanReject
			}
			return mod, scanDone
		default:
			return token{}, scanReject
		}
	}
}

// clauseElement consumes one binding group of an import or export clause:
// a brace list, a namespace "* as x", or, for imports, a default binding.
func (p *parser) clauseElement(isImport bool) scanState {
	t, ok := p.next()
	switch {
	case !ok:
		return scanMore
	case t.is(tokPunct, "{"):
		for {
			t, ok := p.next()
			switch {
			case !ok:
				return scanMore
			case t.is(tokPunct, "}"):
				return scanDone
			case t.kind == tokPunct && !t.is(tokPunct, ","):
				return scanReject
			}
		}
	case t.is(tokPunct, "*"):
		if p.accept(tokIdent, "as") {
			if _, ok := p.peek(0); !ok {
				return scanMore
			}
			if _, ok := p.ident(); !ok {
				return scanReject
			}
		}
		return scanDone
	case isImport && t.kind == tokIdent:
		return scanDone
	}
	return scanReject
}
