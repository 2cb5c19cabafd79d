// Package rewrite turns parsed import statements into replacement lines and
// splices replacements into a file's line buffer.
package rewrite

import (
	"strings"

	"github.com/siyuan-infoblox/tsfix/pkg/statement"
)

// Resolve maps diagnostic identifiers onto the bindings of stmt. It returns
// the local names that must become type-only and the identifiers stmt does
// not bind. A default binding matches by its own name.
func Resolve(stmt *statement.ImportStatement, idents []string) (map[string]bool, []string) {
	flagged := make(map[string]bool)
	var unknown []string
	for _, ident := range idents {
		if stmt.Default != "" && ident == stmt.Default {
			flagged[stmt.Default] = true
			continue
		}
		if b, ok := stmt.Find(ident); ok {
			flagged[b.Local()] = true
			continue
		}
		unknown = append(unknown, ident)
	}
	return flagged, unknown
}

// Split returns the replacement lines for stmt when the bindings whose local
// names are in typeOnly must be imported as types. Remaining bindings stay
// in a value import emitted first; flagged bindings follow in a type-only
// import, each group in its original order. A flagged default binding gets
// its own "import type D from" line, since a type-only import cannot carry a
// default and named bindings together.
//
// Statements that are already type-only, or that have no flagged binding,
// come back as their original lines. Every emitted line starts with the
// statement's indentation; quote style and semicolon are kept, and a
// trailing comment is moved to the last line.
func Split(stmt *statement.ImportStatement, typeOnly map[string]bool) []string {
	if stmt.TypeOnly || !anyFlagged(stmt, typeOnly) {
		return statement.SplitLines(stmt.Raw)
	}

	var values, types []statement.BoundName
	for _, n := range stmt.Names {
		if typeOnly[n.Local()] {
			n.IsTypeOnly = false
			types = append(types, n)
		} else {
			values = append(values, n)
		}
	}
	valueDefault, typeDefault := stmt.Default, ""
	if stmt.Default != "" && typeOnly[stmt.Default] {
		valueDefault, typeDefault = "", stmt.Default
	}

	var out []string
	if valueDefault != "" || len(values) > 0 {
		out = append(out, render(stmt, false, valueDefault, values))
	}
	if typeDefault != "" {
		out = append(out, render(stmt, true, typeDefault, nil))
	}
	if len(types) > 0 {
		out = append(out, render(stmt, true, "", types))
	}
	if stmt.Trailing != "" {
		out[len(out)-1] += " " + stmt.Trailing
	}
	return out
}

func anyFlagged(stmt *statement.ImportStatement, typeOnly map[string]bool) bool {
	if stmt.Default != "" && typeOnly[stmt.Default] {
		return true
	}
	for _, n := range stmt.Names {
		if typeOnly[n.Local()] {
			return true
		}
	}
	return false
}

func render(stmt *statement.ImportStatement, typeOnly bool, dflt string, names []statement.BoundName) string {
	var sb strings.Builder
	sb.WriteString(stmt.Indent)
	sb.WriteString("import ")
	if typeOnly {
		sb.WriteString("type ")
	}
	if dflt != "" {
		sb.WriteString(dflt)
		if len(names) > 0 {
			sb.WriteString(", ")
		}
	}
	if len(names) > 0 {
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = n.String()
		}
		sb.WriteString("{ ")
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString(" }")
	}
	sb.WriteString(" from ")
	q := string(stmt.Quote)
	sb.WriteString(q + stmt.ModulePath + q)
	if stmt.Semicolon {
		sb.WriteString(";")
	}
	return sb.String()
}
