// Package diagnostic extracts "must be imported using a type-only import"
// errors from TypeScript compiler output.
package diagnostic

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCode is the compiler code for a type imported without "import type"
// under verbatimModuleSyntax.
const DefaultCode = "TS1484"

// lookahead is how many lines after a diagnostic are searched for the echoed
// source snippet naming the module.
const lookahead = 4

var (
	// src/a.ts:1:10 - error TS1484: 'X' is a type and must be imported ...
	prettyLine = regexp.MustCompile(`^(.+?):(\d+):(\d+) - error (TS\d+): (.*)$`)
	// src/a.ts(1,10): error TS1484: 'X' is a type and must be imported ...
	plainLine   = regexp.MustCompile(`^(.+?)\((\d+),(\d+)\): error (TS\d+): (.*)$`)
	quotedIdent = regexp.MustCompile(`'([^']+)'`)
	fromClause  = regexp.MustCompile(`\bfrom\s*(['"])([^'"]+)['"]`)
	ansiEscape  = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// ImportError is one type-only import diagnostic.
type ImportError struct {
	SourceFile string // absolute path
	Line       int    // 1-based
	Column     int    // 1-based
	Identifier string
	ModulePath string // empty when the report did not echo the import
	Code       string
}

// Options configures Parse.
type Options struct {
	// BaseDir resolves relative file names. Empty means the working directory.
	BaseDir string
	// Code is the diagnostic code to extract; DefaultCode when empty.
	// "1484" and "TS1484" are equivalent.
	Code string
}

// NormalizeCode returns code in "TS<digits>" form.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCode
	}
	if !strings.HasPrefix(code, "TS") {
		code = "TS" + code
	}
	return code
}

type header struct {
	file    string
	line    int
	column  int
	code    string
	message string
}

func matchHeader(line string) (header, bool) {
	m := prettyLine.FindStringSubmatch(line)
	if m == nil {
		m = plainLine.FindStringSubmatch(line)
	}
	if m == nil {
		return header{}, false
	}
	ln, err := strconv.Atoi(m[2])
	if err != nil || ln < 1 {
		return header{}, false
	}
	col, err := strconv.Atoi(m[3])
	if err != nil || col < 1 {
		return header{}, false
	}
	return header{file: strings.TrimSpace(m[1]), line: ln, column: col, code: m[4], message: m[5]}, true
}

// Parse returns the diagnostics in text whose code matches opts.Code, in
// input order. Lines that are not diagnostics, or are diagnostics for other
// codes, are ignored; malformed input yields an empty result.
func Parse(text string, opts Options) []ImportError {
	code := NormalizeCode(opts.Code)
	base := opts.BaseDir
	if base == "" {
		base = "."
	}
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}

	text = ansiEscape.ReplaceAllString(text, "")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var errs []ImportError
	for i, line := range lines {
		h, ok := matchHeader(line)
		if !ok || h.code != code {
			continue
		}
		ident := quotedIdent.FindStringSubmatch(h.message)
		if ident == nil {
			continue
		}
		file := h.file
		if !filepath.IsAbs(file) {
			file = filepath.Join(base, file)
		}
		errs = append(errs, ImportError{
			SourceFile: filepath.Clean(file),
			Line:       h.line,
			Column:     h.column,
			Identifier: ident[1],
			ModulePath: snippetModule(lines, i+1),
			Code:       h.code,
		})
	}
	return errs
}

// snippetModule looks for the echoed import in the lines following a
// diagnostic, stopping at the next diagnostic.
func snippetModule(lines []string, start int) string {
	for k := start; k < len(lines) && k < start+lookahead; k++ {
		if _, ok := matchHeader(lines[k]); ok {
			break
		}
		if m := fromClause.FindStringSubmatch(lines[k]); m != nil {
			return m[2]
		}
	}
	return ""
}
