package engine

import (
	"os"
	"sync"
)

// globalPartials tracks destination files that are being written. A file is
// registered from the moment it is truncated until its copy returns, so an
// abrupt shutdown can remove it rather than leave a truncated file behind.
var globalPartials = &partialRegistry{}

type partialRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// RegisterPartial adds an in-flight destination path to the registry.
func RegisterPartial(path string) {
	globalPartials.mu.Lock()
	defer globalPartials.mu.Unlock()
	if globalPartials.paths == nil {
		globalPartials.paths = make(map[string]struct{})
	}
	globalPartials.paths[path] = struct{}{}
}

// DeregisterPartial removes a destination path from the registry.
func DeregisterPartial(path string) {
	globalPartials.mu.Lock()
	defer globalPartials.mu.Unlock()
	delete(globalPartials.paths, path)
}

// CleanupPartials removes every registered destination file and returns the
// paths it removed.
func CleanupPartials() []string {
	globalPartials.mu.Lock()
	paths := make([]string, 0, len(globalPartials.paths))
	for p := range globalPartials.paths {
		paths = append(paths, p)
	}
	globalPartials.paths = nil
	globalPartials.mu.Unlock()

	removed := paths[:0]
	for _, p := range paths {
		if err := os.Remove(p); err == nil {
			removed = append(removed, p)
		}
	}
	return removed
}
