// Package diff renders the line-level change a rewrite would make, for dry runs.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Render returns a unified-style listing of the lines removed from and added
// to before. Unchanged lines are omitted. An empty string means no change.
func Render(path, before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	sb.WriteString("--- " + path + "\n")
	sb.WriteString("+++ " + path + "\n")
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix + strings.TrimSuffix(line, "\n") + "\n")
		}
	}
	return sb.String()
}
