package extension

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	tsfixerrors "github.com/siyuan-infoblox/tsfix/pkg/errors"
	"github.com/siyuan-infoblox/tsfix/pkg/events"
)

// writeTree creates files (relative path → content) under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func newRewriter(t *testing.T, config RewriterConfig, sink events.Sink) *Rewriter {
	t.Helper()
	r, err := New(config, sink)
	require.NoError(t, err)
	return r
}

func TestRewriter_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		input string
		want  string
	}{
		{
			name:  "sibling exists",
			files: map[string]string{"fileB.ts": "export const B = 1;"},
			input: "import { B } from './fileB';",
			want:  "import { B } from './fileB.ts';",
		},
		{
			name:  "sibling missing",
			input: "import { nonExistent } from './nonExistent';",
			want:  "import { nonExistent } from './nonExistent';",
		},
		{
			name:  "already suffixed",
			files: map[string]string{"../fileA.ts": "export const A = 1;"},
			input: "import { A } from '../fileA.ts';",
			want:  "import { A } from '../fileA.ts';",
		},
		{
			name:  "bare package untouched",
			input: "import { z } from 'zod';",
			want:  "import { z } from 'zod';",
		},
		{
			name:  "directory is not a module file",
			files: map[string]string{"lib/index.ts": "export {};"},
			input: "import { lib } from './lib';",
			want:  "import { lib } from './lib';",
		},
		{
			name:  "dotted name gets the extension appended",
			files: map[string]string{"app.config.ts": "export {};"},
			input: "import config from './app.config';",
			want:  "import config from './app.config.ts';",
		},
		{
			name:  "path-like string outside an import",
			files: map[string]string{"fileB.ts": ""},
			input: "const target = './fileB';\nlog(`from './fileB'`);",
			want:  "const target = './fileB';\nlog(`from './fileB'`);",
		},
		{
			name:  "line comment after a semicolon-less export",
			files: map[string]string{"legacy.ts": ""},
			input: "export const x = 1\n// adapted from './legacy'\n",
			want:  "export const x = 1\n// adapted from './legacy'\n",
		},
		{
			name:  "block comment after a semicolon-less export",
			files: map[string]string{"legacy.ts": ""},
			input: "export const x = y\n/* see from \"./legacy\" */",
			want:  "export const x = y\n/* see from \"./legacy\" */",
		},
		{
			name:  "local export list followed by a comment",
			files: map[string]string{"legacy.ts": ""},
			input: "export { a, b }\n// from './legacy'\nconst c = 1\n",
			want:  "export { a, b }\n// from './legacy'\nconst c = 1\n",
		},
		{
			name:  "semicolon-less re-export",
			files: map[string]string{"legacy.ts": ""},
			input: "export * from './legacy'\nexport const x = 1\n",
			want:  "export * from './legacy.ts'\nexport const x = 1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			root := t.TempDir()
			src := filepath.Join(root, "src")
			req.NoError(os.MkdirAll(src, 0755))
			files := map[string]string{}
			for rel, content := range tt.files {
				files[filepath.Join("src", rel)] = content
			}
			writeTree(t, root, files)

			r := newRewriter(t, RewriterConfig{}, nil)
			got, _ := r.RewriteContent(filepath.Join(src, "main.ts"), tt.input)
			req.Equal(tt.want, got)
		})
	}
}

func TestRewriter_Golden(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/a.ts":           "export const A = 1;",
		"src/types.ts":       "export type B = string;",
		"src/reexport.ts":    "export const R = 1;",
		"src/cd.ts":          "export const C = 1, D = 2;",
		"src/side-effect.ts": "globalThis.x = 1;",
		"src/styles.css":     "body {}",
		"f.ts":               "export const F = 1;",
	})

	input := `import { A } from './a';
import type { B } from "./types";
export * from './reexport';
export {
  C,
  D,
} from './cd';
import './side-effect';
import { E } from './missing';
import { F } from '../f.ts';
import styles from './styles.css';
import { dep } from 'lodash';
// import { G } from './a';
const path = './a';
const lazy = () => import('./a');
`
	main := filepath.Join(root, "src", "main.ts")
	writeTree(t, root, map[string]string{"src/main.ts": input})

	r := newRewriter(t, RewriterConfig{}, nil)
	changes, err := r.ProcessFile(main)
	req.NoError(err)
	req.Equal([]Change{
		{Line: 1, From: "./a", To: "./a.ts"},
		{Line: 2, From: "./types", To: "./types.ts"},
		{Line: 3, From: "./reexport", To: "./reexport.ts"},
		{Line: 7, From: "./cd", To: "./cd.ts"},
		{Line: 8, From: "./side-effect", To: "./side-effect.ts"},
	}, changes)

	g := goldie.New(t)
	g.Assert(t, "rewrite_mixed", []byte(readFile(t, main)))
}

func TestRewriter_ExtensionPrecedence(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"both.ts":  "",
		"both.js":  "",
		"only.tsx": "",
	})

	r := newRewriter(t, RewriterConfig{Extensions: []string{"ts", ".tsx", "js"}}, nil)
	got, changes := r.RewriteContent(filepath.Join(root, "main.ts"),
		"import { a } from './both';\nimport { b } from './only';\n")
	req.Equal("import { a } from './both.ts';\nimport { b } from './only.tsx';\n", got)
	req.Len(changes, 2)
}

func TestRewriter_ProcessPath_Idempotent(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/index.ts":           "import { util } from './lib/util';\nexport * from './lib/types';\n",
		"src/lib/util.ts":        "import { T } from './types';\nexport const util = 1;\n",
		"src/lib/types.ts":       "export type T = number;\n",
		"src/lib/nested/deep.ts": "import { util } from '../util';\nimport { gone } from '../gone';\n",
		"node_modules/x/x.ts":    "import { y } from './y';\n",
		"node_modules/x/y.ts":    "",
	})

	rec := &events.Recorder{}
	r := newRewriter(t, RewriterConfig{}, rec)

	res, err := r.ProcessPath(context.Background(), root)
	req.NoError(err)
	req.Equal(Result{FilesScanned: 4, FilesChanged: 3, Specifiers: 4}, res)

	req.Equal("import { util } from './lib/util.ts';\nexport * from './lib/types.ts';\n", readFile(t, filepath.Join(root, "src/index.ts")))
	req.Equal("import { T } from './types.ts';\nexport const util = 1;\n", readFile(t, filepath.Join(root, "src/lib/util.ts")))
	req.Equal("import { util } from '../util.ts';\nimport { gone } from '../gone';\n", readFile(t, filepath.Join(root, "src/lib/nested/deep.ts")))
	req.Equal("import { y } from './y';\n", readFile(t, filepath.Join(root, "node_modules/x/x.ts")))

	snapshot := map[string]string{}
	for _, rel := range []string{"src/index.ts", "src/lib/util.ts", "src/lib/types.ts", "src/lib/nested/deep.ts"} {
		snapshot[rel] = readFile(t, filepath.Join(root, rel))
	}

	res, err = r.ProcessPath(context.Background(), root)
	req.NoError(err)
	req.Equal(0, res.FilesChanged)
	for rel, content := range snapshot {
		req.Equal(content, readFile(t, filepath.Join(root, rel)), "second run changed %s", rel)
	}
}

func TestRewriter_NoWriteWithoutChanges(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	path := filepath.Join(root, "main.ts")
	writeTree(t, root, map[string]string{"main.ts": "import { x } from './missing';\n"})

	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	req.NoError(os.Chtimes(path, past, past))

	r := newRewriter(t, RewriterConfig{}, nil)
	changes, err := r.ProcessFile(path)
	req.NoError(err)
	req.Empty(changes)

	info, err := os.Stat(path)
	req.NoError(err)
	req.True(info.ModTime().Equal(past), "file was rewritten")
}

func TestRewriter_DryRun(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	path := filepath.Join(root, "main.ts")
	input := "import { B } from './fileB';\n"
	writeTree(t, root, map[string]string{"main.ts": input, "fileB.ts": ""})

	var out bytes.Buffer
	rec := &events.Recorder{}
	r := newRewriter(t, RewriterConfig{DryRun: true, DiffOutput: &out}, rec)

	res, err := r.ProcessPath(context.Background(), root)
	req.NoError(err)
	req.Equal(1, res.FilesChanged)
	req.Equal(input, readFile(t, path))
	req.Contains(out.String(), "-import { B } from './fileB';\n")
	req.Contains(out.String(), "+import { B } from './fileB.ts';\n")
}

func TestRewriter_ProcessPath_InvalidRoot(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	file := filepath.Join(root, "a.ts")
	writeTree(t, root, map[string]string{"a.ts": ""})

	r := newRewriter(t, RewriterConfig{}, nil)

	_, err := r.ProcessPath(context.Background(), filepath.Join(root, "missing"))
	req.True(errors.Is(err, tsfixerrors.ErrDirectoryAccess))

	_, err = r.ProcessPath(context.Background(), file)
	req.True(errors.Is(err, tsfixerrors.ErrDirectoryAccess))
}

func TestRewriter_ProcessPath_ContinuesAfterFileError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	req := require.New(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.ts":      "import { b } from './b';\n",
		"b.ts":      "",
		"locked.ts": "import { b } from './b';\n",
	})
	locked := filepath.Join(root, "locked.ts")
	req.NoError(os.Chmod(locked, 0000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0644) })

	rec := &events.Recorder{}
	r := newRewriter(t, RewriterConfig{}, rec)
	res, err := r.ProcessPath(context.Background(), root)
	req.NoError(err)
	req.Equal(1, res.Failures)
	req.Equal(1, res.FilesChanged)
	req.Equal(1, rec.Count(events.LevelError))
	evs := rec.Events()
	req.Equal("Processed 3 files, 1 changed, 1 files failed to process", evs[len(evs)-1].Message)
	req.Equal("import { b } from './b.ts';\n", readFile(t, filepath.Join(root, "a.ts")))
}

func TestRewriter_ProcessPath_Cancelled(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.ts": "import { b } from './b';\n", "b.ts": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRewriter(t, RewriterConfig{}, nil)
	_, err := r.ProcessPath(ctx, root)
	req.ErrorIs(err, context.Canceled)
	req.Equal("import { b } from './b';\n", readFile(t, filepath.Join(root, "a.ts")))
}

func TestNew_RejectsEmptyExtensions(t *testing.T) {
	req := require.New(t)
	_, err := New(RewriterConfig{Extensions: []string{" ", ""}}, nil)
	req.ErrorIs(err, tsfixerrors.ErrInvalidArgument)
}

func TestResolver(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	path := filepath.Join(root, "a.ts")

	r, err := NewResolver(0)
	req.NoError(err)
	req.False(r.Exists(path))

	writeTree(t, root, map[string]string{"a.ts": ""})
	req.False(r.Exists(path), "answer is cached")

	r.Forget(path)
	req.True(r.Exists(path))

	req.False(r.Exists(root), "directories are not module files")

	req.NoError(os.Remove(path))
	r.Purge()
	req.False(r.Exists(path))
}
