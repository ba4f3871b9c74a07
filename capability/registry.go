package capability

import (
	"sort"
	"sync"
)

// Registry is a thread-safe mapping from capability name to implementation.
// Capabilities are registered by name at startup; lookup by the dispatcher is
// a plain map access, never runtime type inspection.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
}

// NewRegistry constructs an empty registry, optionally pre-populated.
func NewRegistry(capabilities ...Capability) *Registry {
	r := &Registry{capabilities: make(map[string]Capability, len(capabilities))}
	for _, c := range capabilities {
		r.Register(c)
	}
	return r
}

// Register adds a capability, replacing any existing registration with the
// same name.
func (r *Registry) Register(c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[c.Name()] = c
}

// Get returns the capability registered under name and whether it exists.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.capabilities[name]
	return c, ok
}

// Names returns the sorted names of all registered capabilities.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all registered capabilities in name order.
func (r *Registry) List() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]Capability, 0, len(names))
	for _, name := range names {
		list = append(list, r.capabilities[name])
	}
	return list
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.capabilities)
}
