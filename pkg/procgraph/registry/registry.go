// Package registry caches the backend's process catalog: the specs of
// the processes a backend advertises, keyed by namespace and id. The
// catalog is server-defined and extensible, so the registry serves
// discovery and tooling only. Graph construction accepts process ids
// the registry has never seen.
package registry

import "sync"

// DefaultNamespace is the namespace of backend-predefined processes.
const DefaultNamespace = "backend"

// ParamSpec describes one parameter of an advertised process.
type ParamSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
	Optional    bool           `json:"optional,omitempty"`
	Default     any            `json:"default,omitempty"`
}

// Spec describes one advertised process.
type Spec struct {
	ID          string      `json:"id"`
	Summary     string      `json:"summary,omitempty"`
	Description string      `json:"description,omitempty"`
	Parameters  []ParamSpec `json:"parameters"`
}

type key struct {
	namespace string
	id        string
}

// Registry is a thread-safe process catalog cache.
type Registry struct {
	mu      sync.RWMutex
	entries map[key]Spec
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[key]Spec)}
}

// Register adds or updates a spec under the given namespace.
// An empty namespace means DefaultNamespace.
func (r *Registry) Register(namespace string, spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key{normalize(namespace), spec.ID}] = spec
}

// RegisterAll adds every spec under the given namespace.
func (r *Registry) RegisterAll(namespace string, specs []Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns := normalize(namespace)
	for _, spec := range specs {
		r.entries[key{ns, spec.ID}] = spec
	}
}

// Get returns the spec for a process id and whether it exists.
func (r *Registry) Get(namespace, id string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.entries[key{normalize(namespace), id}]
	return spec, ok
}

// Has returns true if the process is known.
func (r *Registry) Has(namespace, id string) bool {
	_, ok := r.Get(namespace, id)
	return ok
}

// IDs returns the process ids known under a namespace.
// The order is not guaranteed.
func (r *Registry) IDs(namespace string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns := normalize(namespace)
	var ids []string
	for k := range r.entries {
		if k.namespace == ns {
			ids = append(ids, k.id)
		}
	}
	return ids
}

// Len returns the number of cached specs across all namespaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Range iterates over a snapshot of the registry. If fn returns false,
// iteration stops. Registering during iteration is safe and does not
// affect the current iteration.
func (r *Registry) Range(fn func(namespace string, spec Spec) bool) {
	r.mu.RLock()
	snapshot := make(map[key]Spec, len(r.entries))
	for k, v := range r.entries {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	for k, v := range snapshot {
		if !fn(k.namespace, v) {
			return
		}
	}
}

func normalize(namespace string) string {
	if namespace == "" {
		return DefaultNamespace
	}
	return namespace
}
