package diagnostic

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// LineErrors holds the diagnostics reported against one line of a file.
type LineErrors struct {
	Line   int
	Errors []ImportError
}

// Identifiers returns the flagged identifiers of the line, without duplicates,
// in report order.
func (l LineErrors) Identifiers() []string {
	seen := make(map[string]bool, len(l.Errors))
	var out []string
	for _, e := range l.Errors {
		if !seen[e.Identifier] {
			seen[e.Identifier] = true
			out = append(out, e.Identifier)
		}
	}
	return out
}

// Grouping indexes diagnostics by file and then by line, keeping the order
// in which each file and line first appeared in the report.
type Grouping struct {
	files *orderedmap.OrderedMap[string, *orderedmap.OrderedMap[int, []ImportError]]
	count int
}

// Group builds the file → line → diagnostics view of errs.
func Group(errs []ImportError) *Grouping {
	g := &Grouping{files: orderedmap.New[string, *orderedmap.OrderedMap[int, []ImportError]]()}
	for _, e := range errs {
		byLine, ok := g.files.Get(e.SourceFile)
		if !ok {
			byLine = orderedmap.New[int, []ImportError]()
			g.files.Set(e.SourceFile, byLine)
		}
		existing, _ := byLine.Get(e.Line)
		byLine.Set(e.Line, append(existing, e))
		g.count++
	}
	return g
}

// Len returns the number of files with diagnostics.
func (g *Grouping) Len() int {
	return g.files.Len()
}

// Count returns the total number of diagnostics grouped.
func (g *Grouping) Count() int {
	return g.count
}

// Files returns the files needing work in report order.
func (g *Grouping) Files() []string {
	out := make([]string, 0, g.files.Len())
	for pair := g.files.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Lines returns the diagnostics of file grouped by line, in report order.
func (g *Grouping) Lines(file string) []LineErrors {
	byLine, ok := g.files.Get(file)
	if !ok {
		return nil
	}
	out := make([]LineErrors, 0, byLine.Len())
	for pair := byLine.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, LineErrors{Line: pair.Key, Errors: pair.Value})
	}
	return out
}
