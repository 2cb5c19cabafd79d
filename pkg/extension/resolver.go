package extension

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of memoised existence checks.
const DefaultCacheSize = 4096

// Resolver answers "does this file exist" and remembers the answer, since
// sibling modules are checked once per importing file.
type Resolver struct {
	cache *lru.Cache[string, bool]
}

// NewResolver creates a Resolver holding up to size answers.
func NewResolver(size int) (*Resolver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	return &Resolver{cache: cache}, nil
}

// Exists reports whether path names a regular file (following symlinks).
func (r *Resolver) Exists(path string) bool {
	if ok, hit := r.cache.Get(path); hit {
		return ok
	}
	info, err := os.Stat(path)
	ok := err == nil && info.Mode().IsRegular()
	r.cache.Add(path, ok)
	return ok
}

// Forget drops the remembered answer for path.
func (r *Resolver) Forget(path string) {
	r.cache.Remove(path)
}

// Purge drops every remembered answer.
func (r *Resolver) Purge() {
	r.cache.Purge()
}
