// Package config reads tsfix defaults from the environment. A .env file in
// the working directory is loaded first; variables already set win.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvExtensions = "TSFIX_EXT"
	EnvInclude    = "TSFIX_INCLUDE"
	EnvCode       = "TSFIX_CODE"
	EnvBaseDir    = "TSFIX_BASE_DIR"
)

type Config struct {
	Extensions       []string // target extensions for the ext command
	SourceExtensions []string // files scanned by the ext command
	Code             string   // diagnostic code for the type-imports command
	BaseDir          string   // base for relative paths in a diagnostic report
}

// Load returns the environment defaults. Unset variables leave their field
// empty so that callers fall back to their own defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Extensions:       splitList(os.Getenv(EnvExtensions)),
		SourceExtensions: splitList(os.Getenv(EnvInclude)),
		Code:             strings.TrimSpace(os.Getenv(EnvCode)),
		BaseDir:          strings.TrimSpace(os.Getenv(EnvBaseDir)),
	}
}

// splitList splits a comma separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Or returns values, or fallback when values is empty.
func Or(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
