package utils

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/siyuan-infoblox/tsfix/pkg/errors"
	"github.com/siyuan-infoblox/tsfix/pkg/events"
)

// DefaultSourceExtensions are the file extensions scanned when none are configured.
var DefaultSourceExtensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// IsSourceFile checks if filename ends with one of exts
func IsSourceFile(filename string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(filename, ext) && len(filename) > len(ext) {
			return true
		}
	}
	return false
}

// IsDirectory checks if the given path is a directory
func IsDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// CheckRoot verifies that root exists and is a directory.
func CheckRoot(root string) error {
	isDir, err := IsDirectory(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %s: %v", errors.ErrDirectoryAccess, errors.ErrMsgFailedToCheckPath, root, err)
	}
	if !isDir {
		return fmt.Errorf("%w: %s: %s", errors.ErrDirectoryAccess, errors.ErrMsgNotADirectory, root)
	}
	return nil
}

// SkipDir reports directories that never hold project sources.
func SkipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}

// WalkSourceFiles lazily yields every file under root whose name ends with
// one of exts. Directories are visited depth first and each real directory
// at most once; symbolic links to directories are not followed. A
// subdirectory that cannot be read is reported to sink and skipped.
// The caller is expected to have validated root with CheckRoot.
func WalkSourceFiles(root string, exts []string, sink events.Sink) iter.Seq[string] {
	sink = events.OrDiscard(sink)
	return func(yield func(string) bool) {
		visited := make(map[string]bool)
		var walk func(dir string) bool
		walk = func(dir string) bool {
			real, err := filepath.EvalSymlinks(dir)
			if err != nil {
				real = dir
			}
			if visited[real] {
				return true
			}
			visited[real] = true

			entries, err := os.ReadDir(dir)
			if err != nil {
				sink.Emit(events.Event{Level: events.LevelWarn, File: dir, Message: errors.WarnMsgSkippedDirectory + ": " + errors.ErrMsgFailedToReadDir, Err: err})
				return true
			}
			for _, entry := range entries {
				path := filepath.Join(dir, entry.Name())
				switch {
				case entry.Type()&os.ModeSymlink != 0:
					// Only links to regular files are followed.
					info, err := os.Stat(path)
					if err != nil || !info.Mode().IsRegular() {
						continue
					}
					if IsSourceFile(entry.Name(), exts) && !yield(path) {
						return false
					}
				case entry.IsDir():
					if SkipDir(entry.Name()) {
						continue
					}
					if !walk(path) {
						return false
					}
				case entry.Type().IsRegular():
					if IsSourceFile(entry.Name(), exts) && !yield(path) {
						return false
					}
				}
			}
			return true
		}
		walk(root)
	}
}
