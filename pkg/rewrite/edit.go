package rewrite

import (
	"fmt"
	"slices"

	"github.com/siyuan-infoblox/tsfix/pkg/errors"
)

// Edit replaces the 1-based inclusive line range [Start, End] with Lines.
type Edit struct {
	Start int
	End   int
	Lines []string
}

// Delta is the change in line count the edit causes.
func (e Edit) Delta() int {
	return len(e.Lines) - (e.End - e.Start + 1)
}

// Apply returns a new buffer with every edit applied. Line numbers in edits
// refer to the original buffer, so edits are independent of each other and
// of the order they are given in; they must not overlap. lines is not modified.
func Apply(lines []string, edits []Edit) ([]string, error) {
	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, func(a, b Edit) int { return a.Start - b.Start })

	prevEnd := 0
	for _, e := range sorted {
		if e.Start < 1 || e.End < e.Start || e.End > len(lines) {
			return nil, fmt.Errorf("%s: lines %d-%d outside 1-%d", errors.ErrMsgFailedToApplyEdits, e.Start, e.End, len(lines))
		}
		if e.Start <= prevEnd {
			return nil, fmt.Errorf("%s: lines %d-%d overlap an earlier edit ending at %d", errors.ErrMsgFailedToApplyEdits, e.Start, e.End, prevEnd)
		}
		prevEnd = e.End
	}

	size := len(lines)
	for _, e := range sorted {
		size += e.Delta()
	}
	out := make([]string, 0, size)
	cursor := 0
	for _, e := range sorted {
		out = append(out, lines[cursor:e.Start-1]...)
		out = append(out, e.Lines...)
		cursor = e.End
	}
	return append(out, lines[cursor:]...), nil
}
