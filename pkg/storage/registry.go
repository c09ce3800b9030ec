package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Registry tracks the filenames claimed by one job. Names are compared
// case-insensitively so two claims never map to one file on
// case-insensitive filesystems; the caller's spelling is kept.
type Registry struct {
	mu   sync.Mutex
	used map[string]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{used: make(map[string]struct{})}
}

// Reserve claims name, or the first free "base-i.ext" for i = 1, 2, ...
// The check and the insert happen under one lock.
func (r *Registry) Reserve(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.claim(name) {
		return name
	}

	base, ext := splitExt(name)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", base, i, ext)
		if r.claim(candidate) {
			return candidate
		}
	}
}

// Release frees a name whose download did not complete
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.used, foldName(name))
}

// claim inserts name if its folded form is free; r.mu must be held
func (r *Registry) claim(name string) bool {
	key := foldName(name)
	if _, taken := r.used[key]; taken {
		return false
	}
	r.used[key] = struct{}{}
	return true
}

func foldName(name string) string {
	return strings.ToLower(name)
}

// Contains reports whether name is currently claimed
func (r *Registry) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.used[foldName(name)]
	return ok
}

// Len returns the number of claimed names
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.used)
}

// splitExt splits name into base and extension; dotfiles have no extension
func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}
