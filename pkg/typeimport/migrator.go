// Package typeimport moves bindings that the compiler reports as types out of
// value imports and into "import type" statements.
package typeimport

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/siyuan-infoblox/tsfix/pkg/diagnostic"
	"github.com/siyuan-infoblox/tsfix/pkg/diff"
	"github.com/siyuan-infoblox/tsfix/pkg/errors"
	"github.com/siyuan-infoblox/tsfix/pkg/events"
	"github.com/siyuan-infoblox/tsfix/pkg/rewrite"
	"github.com/siyuan-infoblox/tsfix/pkg/statement"
)

type MigratorConfig struct {
	DryRun     bool      // report diffs instead of writing
	DiffOutput io.Writer // receives dry-run diffs; discarded when nil
}

// Result summarises a Run.
type Result struct {
	FilesScanned        int
	FilesChanged        int
	StatementsRewritten int
	Failures            int
}

// Migrator rewrites the files named by a diagnostic grouping.
type Migrator struct {
	config MigratorConfig
	sink   events.Sink
}

// New creates a Migrator. A nil sink discards events.
func New(config MigratorConfig, sink events.Sink) *Migrator {
	return &Migrator{config: config, sink: events.OrDiscard(sink)}
}

func (m *Migrator) warn(file string, line int, msg string, err error) {
	m.sink.Emit(events.Event{Level: events.LevelWarn, File: file, Line: line, Message: msg, Err: err})
}

// Run migrates every file in g, in report order. A failure on one file is
// reported and counted; only cancellation of ctx stops the run early.
func (m *Migrator) Run(ctx context.Context, g *diagnostic.Grouping) (Result, error) {
	var res Result
	if g.Len() == 0 {
		m.sink.Emit(events.Event{Level: events.LevelInfo, Message: errors.InfoMsgNoDiagnostics})
		return res, nil
	}
	if m.config.DryRun {
		m.sink.Emit(events.Event{Level: events.LevelInfo, Message: errors.InfoMsgDryRun})
	}

	for _, file := range g.Files() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.FilesScanned++
		n, err := m.MigrateFile(file, g.Lines(file))
		if err != nil {
			res.Failures++
			m.sink.Emit(events.Event{Level: events.LevelError, File: file, Message: err.Error(), Err: err})
			continue
		}
		if n > 0 {
			res.FilesChanged++
			res.StatementsRewritten += n
		}
	}

	msg := fmt.Sprintf(errors.InfoMsgSummary, res.FilesScanned, res.FilesChanged)
	if res.Failures > 0 {
		msg += ", " + fmt.Sprintf(errors.ErrMsgFilesFailedToProcess, res.Failures)
	}
	m.sink.Emit(events.Event{Level: events.LevelInfo, Message: msg})
	return res, nil
}

// MigrateFile rewrites path for the given diagnostics, writing it at most
// once. It returns the number of statements rewritten.
func (m *Migrator) MigrateFile(path string, lines []diagnostic.LineErrors) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", errors.ErrFileAccess, errors.ErrMsgFailedToReadFile, err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", errors.ErrFileAccess, errors.ErrMsgFailedToReadFile, err)
	}

	content := string(src)
	updated, n, err := m.MigrateContent(path, content, lines)
	if err != nil {
		return 0, err
	}
	if n == 0 || updated == content {
		return 0, nil
	}

	if m.config.DryRun {
		if m.config.DiffOutput != nil {
			fmt.Fprint(m.config.DiffOutput, diff.Render(path, content, updated))
		}
		m.sink.Emit(events.Event{Level: events.LevelInfo, File: path, Message: errors.InfoMsgWouldUpdateFile})
		return n, nil
	}

	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", errors.ErrFileAccess, errors.ErrMsgFailedToWriteFile, err)
	}
	m.sink.Emit(events.Event{Level: events.LevelInfo, File: path, Message: errors.InfoMsgUpdatedFile})
	return n, nil
}

// target is a statement with the identifiers reported against it.
type target struct {
	stmt   *statement.ImportStatement
	idents []string
	module string // module path echoed by the report, if any
}

// MigrateContent returns content with the reported bindings moved to
// type-only imports, and the number of statements rewritten. Each statement
// is rewritten at most once however many diagnostics point into it. Every
// untouched line keeps its own line ending; replacement lines take the
// ending of the statement they replace.
func (m *Migrator) MigrateContent(path, content string, lines []diagnostic.LineErrors) (string, int, error) {
	raw := strings.Split(content, "\n")
	stmts, failures := statement.ParseLines(statement.SplitLines(content))

	var order []*target
	byLine := make(map[int]*target)
	for _, le := range lines {
		idx := -1
		for i := range stmts {
			if stmts[i].Covers(le.Line) {
				idx = i
				break
			}
		}
		if idx < 0 {
			m.reportMiss(path, le.Line, failures)
			continue
		}
		stmt := &stmts[idx]
		t, ok := byLine[stmt.Line]
		if !ok {
			t = &target{stmt: stmt}
			byLine[stmt.Line] = t
			order = append(order, t)
		}
		for _, e := range le.Errors {
			t.idents = append(t.idents, e.Identifier)
			if t.module == "" {
				t.module = e.ModulePath
			}
		}
	}

	var edits []rewrite.Edit
	for _, t := range order {
		if t.stmt.TypeOnly {
			continue
		}
		if t.module != "" && t.module != t.stmt.ModulePath {
			m.warn(path, t.stmt.Line, fmt.Sprintf("%s: report names module %q, file imports %q", errors.WarnMsgSkippedStatement, t.module, t.stmt.ModulePath), nil)
			continue
		}
		flagged, unknown := rewrite.Resolve(t.stmt, t.idents)
		for _, ident := range unknown {
			m.warn(path, t.stmt.Line, fmt.Sprintf(errors.WarnMsgNameNotBound, ident), nil)
		}
		if len(flagged) == 0 {
			continue
		}
		lines := rewrite.Split(t.stmt, flagged)
		if strings.HasSuffix(raw[t.stmt.EndLine-1], "\r") {
			for i := range lines {
				lines[i] += "\r"
			}
		}
		edits = append(edits, rewrite.Edit{
			Start: t.stmt.Line,
			End:   t.stmt.EndLine,
			Lines: lines,
		})
		m.sink.Emit(events.Event{Level: events.LevelDebug, File: path, Line: t.stmt.Line, Message: fmt.Sprintf(errors.InfoMsgSplitStatement, t.stmt.ModulePath)})
	}
	if len(edits) == 0 {
		return content, 0, nil
	}

	out, err := rewrite.Apply(raw, edits)
	if err != nil {
		return content, 0, err
	}
	return strings.Join(out, "\n"), len(edits), nil
}

// reportMiss explains why no statement was found at a diagnostic line.
func (m *Migrator) reportMiss(path string, line int, failures []statement.Failure) {
	for _, f := range failures {
		if f.Line == line {
			m.warn(path, line, errors.ErrMsgFailedToParseLine+"; "+errors.WarnMsgSkippedStatement, f.Err)
			return
		}
	}
	m.warn(path, line, errors.WarnMsgNoStatementAtLine, nil)
}
