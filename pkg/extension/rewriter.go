// Package extension appends file extensions to relative import and export
// specifiers whose target exists on disk with that extension.
package extension

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/siyuan-infoblox/tsfix/pkg/diff"
	"github.com/siyuan-infoblox/tsfix/pkg/errors"
	"github.com/siyuan-infoblox/tsfix/pkg/events"
	"github.com/siyuan-infoblox/tsfix/pkg/statement"
	"github.com/siyuan-infoblox/tsfix/pkg/utils"
)

// DefaultExtensions is the target extension list used when none is configured.
var DefaultExtensions = []string{"ts"}

// knownExtensions mark a specifier as already carrying an extension.
var knownExtensions = []string{
	".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs", ".json",
	".css", ".scss", ".sass", ".less", ".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".wasm", ".node",
}

type RewriterConfig struct {
	Extensions       []string  // target extensions in precedence order, with or without the dot
	SourceExtensions []string  // files scanned by ProcessPath
	DryRun           bool      // report diffs instead of writing
	DiffOutput       io.Writer // receives dry-run diffs; discarded when nil
	CacheSize        int       // existence-check cache size
}

// Change is one rewritten specifier.
type Change struct {
	Line int // 1-based line of the specifier
	From string
	To   string
}

// Result summarises a ProcessPath run.
type Result struct {
	FilesScanned int
	FilesChanged int
	Specifiers   int
	Failures     int
}

// Rewriter appends extensions to relative specifiers.
type Rewriter struct {
	config   RewriterConfig
	exts     []string // normalized, with leading dot
	resolver *Resolver
	sink     events.Sink
}

// New creates a Rewriter. A nil sink discards events.
func New(config RewriterConfig, sink events.Sink) (*Rewriter, error) {
	exts := config.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		normalized = append(normalized, "."+strings.TrimPrefix(ext, "."))
	}
	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: no target extension", errors.ErrInvalidArgument)
	}
	if len(config.SourceExtensions) == 0 {
		config.SourceExtensions = utils.DefaultSourceExtensions
	}
	resolver, err := NewResolver(config.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Rewriter{
		config:   config,
		exts:     normalized,
		resolver: resolver,
		sink:     events.OrDiscard(sink),
	}, nil
}

// Resolver returns the existence cache, so callers watching the tree can
// invalidate entries.
func (r *Rewriter) Resolver() *Resolver {
	return r.resolver
}

func (r *Rewriter) hasExtension(spec string) bool {
	lower := strings.ToLower(spec)
	for _, ext := range knownExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, ext := range r.exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// candidate reports whether spec is a relative specifier worth resolving.
func (r *Rewriter) candidate(spec string) bool {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return false
	}
	if strings.HasSuffix(spec, "/") || strings.ContainsAny(spec, "?#") {
		return false
	}
	return !r.hasExtension(spec)
}

// resolve returns spec with the first target extension whose file exists
// next to the importing file, or "" when none does.
func (r *Rewriter) resolve(dir, spec string) string {
	base := filepath.Join(dir, filepath.FromSlash(spec))
	for _, ext := range r.exts {
		if r.resolver.Exists(base + ext) {
			return spec + ext
		}
	}
	return ""
}

// RewriteContent returns content with every resolvable specifier extended,
// and the changes made. Specifiers that cannot be resolved are left as is.
func (r *Rewriter) RewriteContent(path, content string) (string, []Change) {
	dir := filepath.Dir(path)
	var (
		sb      strings.Builder
		changes []Change
		cursor  int
	)
	for _, spec := range statement.Specifiers(content) {
		if !r.candidate(spec.Path) {
			continue
		}
		replacement := r.resolve(dir, spec.Path)
		if replacement == "" {
			continue
		}
		sb.WriteString(content[cursor:spec.Start])
		sb.WriteString(replacement)
		cursor = spec.End
		changes = append(changes, Change{Line: spec.Line, From: spec.Path, To: replacement})
	}
	if len(changes) == 0 {
		return content, nil
	}
	sb.WriteString(content[cursor:])
	return sb.String(), changes
}

// ProcessFile rewrites the file at path, writing it once if any specifier
// changed. It returns the changes made.
func (r *Rewriter) ProcessFile(path string) ([]Change, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrFileAccess, errors.ErrMsgFailedToReadFile, err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrFileAccess, errors.ErrMsgFailedToReadFile, err)
	}

	content := string(src)
	updated, changes := r.RewriteContent(path, content)
	if len(changes) == 0 {
		return nil, nil
	}
	for _, c := range changes {
		r.sink.Emit(events.Event{Level: events.LevelDebug, File: path, Line: c.Line, Message: fmt.Sprintf(errors.InfoMsgRewroteSpecifier, c.From, c.To)})
	}

	if r.config.DryRun {
		if r.config.DiffOutput != nil {
			fmt.Fprint(r.config.DiffOutput, diff.Render(path, content, updated))
		}
		r.sink.Emit(events.Event{Level: events.LevelInfo, File: path, Message: errors.InfoMsgWouldUpdateFile})
		return changes, nil
	}

	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrFileAccess, errors.ErrMsgFailedToWriteFile, err)
	}
	r.sink.Emit(events.Event{Level: events.LevelInfo, File: path, Message: errors.InfoMsgUpdatedFile})
	return changes, nil
}

// ProcessPath rewrites every source file under root. Only an unusable root
// is returned as an error; per-file failures are reported to the sink and
// counted in the result.
func (r *Rewriter) ProcessPath(ctx context.Context, root string) (Result, error) {
	var res Result
	if err := utils.CheckRoot(root); err != nil {
		return res, err
	}
	if r.config.DryRun {
		r.sink.Emit(events.Event{Level: events.LevelInfo, Message: errors.InfoMsgDryRun})
	}

	for path := range utils.WalkSourceFiles(root, r.config.SourceExtensions, r.sink) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.FilesScanned++
		changes, err := r.ProcessFile(path)
		if err != nil {
			res.Failures++
			r.sink.Emit(events.Event{Level: events.LevelError, File: path, Message: err.Error(), Err: err})
			continue
		}
		if len(changes) > 0 {
			res.FilesChanged++
			res.Specifiers += len(changes)
		}
	}

	if res.FilesScanned == 0 {
		r.sink.Emit(events.Event{Level: events.LevelInfo, Message: fmt.Sprintf(errors.InfoMsgNoSourceFilesFound, root)})
		return res, nil
	}
	msg := fmt.Sprintf(errors.InfoMsgSummary, res.FilesScanned, res.FilesChanged)
	if res.Failures > 0 {
		msg += ", " + fmt.Sprintf(errors.ErrMsgFilesFailedToProcess, res.Failures)
	}
	r.sink.Emit(events.Event{Level: events.LevelInfo, Message: msg})
	return res, nil
}
