// Package watch keeps a source tree's specifiers extended while it is being
// edited.
package watch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/siyuan-infoblox/tsfix/pkg/errors"
	"github.com/siyuan-infoblox/tsfix/pkg/events"
	"github.com/siyuan-infoblox/tsfix/pkg/extension"
	"github.com/siyuan-infoblox/tsfix/pkg/utils"
)

// DefaultDebounce is how long the watcher waits for edits to settle.
const DefaultDebounce = 200 * time.Millisecond

// ChangeEvent is one filesystem change under the watched root.
type ChangeEvent struct {
	Path string
	Op   fsnotify.Op
}

// Watcher re-runs the extension rewriter on files as they change.
type Watcher struct {
	root     string
	exts     []string
	debounce time.Duration
	rewriter *extension.Rewriter
	sink     events.Sink
	fsw      *fsnotify.Watcher
}

// New creates a Watcher over every directory under root. Files whose names
// end with one of exts are rewritten by rw when they change.
func New(root string, exts []string, rw *extension.Rewriter, debounce time.Duration, sink events.Sink) (*Watcher, error) {
	if err := utils.CheckRoot(root); err != nil {
		return nil, err
	}
	if len(exts) == 0 {
		exts = utils.DefaultSourceExtensions
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToCreateWatcher, err)
	}

	w := &Watcher{
		root:     root,
		exts:     exts,
		debounce: debounce,
		rewriter: rw,
		sink:     events.OrDiscard(sink),
		fsw:      fsw,
	}
	if err := w.addDirs(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// addDirs watches dir and every directory below it that may hold sources.
func (w *Watcher) addDirs(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && utils.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("%s: %s: %w", errors.ErrMsgFailedToWatchDir, path, err)
		}
		return nil
	})
}

// Run handles filesystem events until ctx is cancelled. Bursts of events are
// collected for the debounce interval and handled as one batch.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]fsnotify.Op)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	w.sink.Emit(events.Event{Level: events.LevelInfo, File: w.root, Message: errors.InfoMsgWatching})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if isDir, _ := utils.IsDirectory(ev.Name); isDir && !utils.SkipDir(filepath.Base(ev.Name)) {
					if err := w.addDirs(ev.Name); err != nil {
						w.sink.Emit(events.Event{Level: events.LevelWarn, File: ev.Name, Message: err.Error(), Err: err})
					}
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending[ev.Name] |= ev.Op
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.sink.Emit(events.Event{Level: events.LevelError, File: w.root, Message: err.Error(), Err: err})

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]ChangeEvent, 0, len(pending))
			for p, op := range pending {
				batch = append(batch, ChangeEvent{Path: p, Op: op})
			}
			pending = make(map[string]fsnotify.Op)
			w.HandleChanges(ctx, batch)
		}
	}
}

// HandleChanges applies a batch of changes. Paths that appeared or
// disappeared invalidate the existence cache and trigger a rescan of the
// whole tree, since any file may import them; otherwise only the written
// source files are rewritten. Writes made here come back as events and are
// no-ops the second time round.
func (w *Watcher) HandleChanges(ctx context.Context, batch []ChangeEvent) {
	slices.SortFunc(batch, func(a, b ChangeEvent) int { return strings.Compare(a.Path, b.Path) })

	resolver := w.rewriter.Resolver()
	rescan := false
	for _, ev := range batch {
		resolver.Forget(ev.Path)
		if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
			rescan = true
		}
	}
	if rescan {
		resolver.Purge()
		if _, err := w.rewriter.ProcessPath(ctx, w.root); err != nil {
			w.sink.Emit(events.Event{Level: events.LevelError, File: w.root, Message: err.Error(), Err: err})
		}
		return
	}

	for _, ev := range batch {
		if !utils.IsSourceFile(filepath.Base(ev.Path), w.exts) {
			continue
		}
		if _, err := w.rewriter.ProcessFile(ev.Path); err != nil {
			w.sink.Emit(events.Event{Level: events.LevelError, File: ev.Path, Message: err.Error(), Err: err})
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
