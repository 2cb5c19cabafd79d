package utils

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	tsfixerrors "github.com/siyuan-infoblox/tsfix/pkg/errors"
	"github.com/siyuan-infoblox/tsfix/pkg/events"
)

func TestIsSourceFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected bool
	}{
		{
			name:     "typescript file",
			filename: "index.ts",
			expected: true,
		},
		{
			name:     "tsx file with path",
			filename: "src/App.tsx",
			expected: true,
		},
		{
			name:     "declaration file",
			filename: "types.d.ts",
			expected: true,
		},
		{
			name:     "module javascript",
			filename: "worker.mjs",
			expected: true,
		},
		{
			name:     "non-source file",
			filename: "README.md",
			expected: false,
		},
		{
			name:     "file with .ts in middle",
			filename: "file.ts.txt",
			expected: false,
		},
		{
			name:     "empty string",
			filename: "",
			expected: false,
		},
		{
			name:     "just .ts",
			filename: ".ts",
			expected: false,
		},
		{
			name:     "json file",
			filename: "package.json",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			result := IsSourceFile(tt.filename, DefaultSourceExtensions)
			req.Equal(tt.expected, result, "IsSourceFile(%q) = %v, want %v", tt.filename, result, tt.expected)
		})
	}
}

func TestIsDirectory(t *testing.T) {
	tempDir := t.TempDir()

	tempFile := filepath.Join(tempDir, "test.txt")
	require.NoError(t, os.WriteFile(tempFile, []byte("test"), 0644))

	tests := []struct {
		name      string
		path      string
		expected  bool
		expectErr bool
	}{
		{
			name:     "existing directory",
			path:     tempDir,
			expected: true,
		},
		{
			name:     "existing file",
			path:     tempFile,
			expected: false,
		},
		{
			name:      "non-existent path",
			path:      "/non/existent/path",
			expectErr: true,
		},
		{
			name:     "current directory",
			path:     ".",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			result, err := IsDirectory(tt.path)

			if tt.expectErr {
				req.Error(err, "IsDirectory(%q) expected error, got nil", tt.path)
				return
			}
			req.NoError(err, "IsDirectory(%q) unexpected error: %v", tt.path, err)
			req.Equal(tt.expected, result, "IsDirectory(%q) = %v, want %v", tt.path, result, tt.expected)
		})
	}
}

func TestCheckRoot(t *testing.T) {
	req := require.New(t)
	tempDir := t.TempDir()
	tempFile := filepath.Join(tempDir, "a.ts")
	req.NoError(os.WriteFile(tempFile, []byte(""), 0644))

	req.NoError(CheckRoot(tempDir))

	err := CheckRoot(tempFile)
	req.Error(err)
	req.True(errors.Is(err, tsfixerrors.ErrDirectoryAccess))

	err = CheckRoot(filepath.Join(tempDir, "missing"))
	req.Error(err)
	req.True(errors.Is(err, tsfixerrors.ErrDirectoryAccess))
}

func TestWalkSourceFiles(t *testing.T) {
	req := require.New(t)
	tempDir := t.TempDir()

	dirs := []string{
		"src/components",
		"src/utils",
		"node_modules/left-pad",
		".git",
		".cache",
		"empty",
	}
	for _, dir := range dirs {
		req.NoError(os.MkdirAll(filepath.Join(tempDir, dir), 0755), "Failed to create directory %s", dir)
	}

	files := map[string]string{
		"index.ts":                       "export {};",
		"src/components/Button.tsx":      "export {};",
		"src/utils/math.ts":              "export {};",
		"src/utils/math.test.ts":         "export {};",
		"src/utils/legacy.js":            "module.exports = {};",
		"node_modules/left-pad/index.js": "module.exports = {};", // excluded (node_modules)
		".git/config":                    "config",               // excluded (hidden dir)
		".cache/cached.ts":               "export {};",           // excluded (hidden dir)
		"README.md":                      "# README",             // excluded (not a source file)
		"src/styles.css":                 "body {}",              // excluded (not a source file)
	}
	for filePath, content := range files {
		req.NoError(os.WriteFile(filepath.Join(tempDir, filePath), []byte(content), 0644), "Failed to create file %s", filePath)
	}

	var found []string
	for path := range WalkSourceFiles(tempDir, DefaultSourceExtensions, nil) {
		found = append(found, path)
	}
	slices.Sort(found)

	expected := []string{
		filepath.Join(tempDir, "index.ts"),
		filepath.Join(tempDir, "src/components/Button.tsx"),
		filepath.Join(tempDir, "src/utils/legacy.js"),
		filepath.Join(tempDir, "src/utils/math.test.ts"),
		filepath.Join(tempDir, "src/utils/math.ts"),
	}
	slices.Sort(expected)
	req.Equal(expected, found)
}

func TestWalkSourceFiles_StopsEarly(t *testing.T) {
	req := require.New(t)
	tempDir := t.TempDir()
	for _, name := range []string{"a.ts", "b.ts", "c.ts"} {
		req.NoError(os.WriteFile(filepath.Join(tempDir, name), []byte(""), 0644))
	}

	count := 0
	for range WalkSourceFiles(tempDir, DefaultSourceExtensions, nil) {
		count++
		break
	}
	req.Equal(1, count)
}

func TestWalkSourceFiles_SymlinkCycle(t *testing.T) {
	req := require.New(t)
	tempDir := t.TempDir()
	sub := filepath.Join(tempDir, "src")
	req.NoError(os.MkdirAll(sub, 0755))
	req.NoError(os.WriteFile(filepath.Join(sub, "a.ts"), []byte(""), 0644))
	if err := os.Symlink(tempDir, filepath.Join(sub, "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	var found []string
	for path := range WalkSourceFiles(tempDir, DefaultSourceExtensions, nil) {
		found = append(found, path)
	}
	req.Equal([]string{filepath.Join(sub, "a.ts")}, found)
}

func TestWalkSourceFiles_UnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	req := require.New(t)
	tempDir := t.TempDir()
	locked := filepath.Join(tempDir, "locked")
	req.NoError(os.MkdirAll(locked, 0755))
	req.NoError(os.WriteFile(filepath.Join(locked, "hidden.ts"), []byte(""), 0644))
	req.NoError(os.WriteFile(filepath.Join(tempDir, "open.ts"), []byte(""), 0644))
	req.NoError(os.Chmod(locked, 0000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	rec := &events.Recorder{}
	var found []string
	for path := range WalkSourceFiles(tempDir, DefaultSourceExtensions, rec) {
		found = append(found, path)
	}
	req.Equal([]string{filepath.Join(tempDir, "open.ts")}, found)
	req.Equal(1, rec.Count(events.LevelWarn))
	req.Equal("skipping directory: failed to read directory", rec.Events()[0].Message)
	req.Equal(locked, rec.Events()[0].File)
}
