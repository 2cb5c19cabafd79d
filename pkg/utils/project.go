package utils

import (
	"os"
	"path/filepath"
)

// projectMarkers are the files whose presence marks a TypeScript project root.
var projectMarkers = []string{"tsconfig.json", "package.json"}

// FindProjectRoot returns the nearest directory at or above start that holds a
// tsconfig.json or package.json. Compiler diagnostics name files relative to
// that directory. An empty string is returned when no marker is found.
func FindProjectRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}

	iterations := 0
	maxIterations := 20 // Prevent infinite loop

	for iterations < maxIterations {
		iterations++

		for _, marker := range projectMarkers {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && !info.IsDir() {
				return dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
