package plugin

import (
	"sort"
	"strings"
	"sync"
)

// Registry holds every registered Plugin and answers dispatch queries by
// extension or by registration order.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
}

// NewRegistry constructs an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds p to the registry. Safe to call concurrently with
// lookups; registration is expected to happen once at startup.
func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = append(r.plugins, p)
}

// All returns every registered plugin, in registration order.
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// FindByExtension returns the plugin that should handle a file with the
// given extension (including the leading dot, e.g. ".go"): among
// plugins claiming ext, the one with the highest Priority wins; ties
// break by Name lexicographically.
func (r *Registry) FindByExtension(ext string) (Plugin, bool) {
	ext = strings.ToLower(ext)
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []Plugin
	for _, p := range r.plugins {
		for _, handled := range p.HandledExtensions() {
			if strings.ToLower(handled) == ext {
				candidates = append(candidates, p)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority() != candidates[j].Priority() {
			return candidates[i].Priority() > candidates[j].Priority()
		}
		return candidates[i].Name() < candidates[j].Name()
	})
	return candidates[0], true
}
