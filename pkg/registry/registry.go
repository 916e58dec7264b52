// Package registry provides the process-wide worker catalog. A Registry is
// constructed once at process start and passed by reference into the router
// and supervisor; there is no package-level global state.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/troupelabs/troupe/pkg/core"
	trperrors "github.com/troupelabs/troupe/pkg/errors"
)

// Constructor builds a fresh worker instance. Workers are created per
// invocation so no mutable worker state is shared across runs.
type Constructor func() core.Worker

// Registry maps lowercase worker names to constructors. Registration happens
// at process start; lookups afterwards are read-only.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a worker constructor under the given name. Names are
// case-insensitive; registering a duplicate is a startup-time,
// fail-fast error.
func (r *Registry) Register(name string, ctor Constructor) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return trperrors.Newf(trperrors.CodeInvalidWorker, "worker name must be non-empty")
	}
	if ctor == nil {
		return trperrors.Newf(trperrors.CodeInvalidWorker, "worker constructor must be non-nil").WithWorker(key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[key]; exists {
		return trperrors.Newf(trperrors.CodeDuplicateName, "worker already registered").WithWorker(key)
	}
	r.ctors[key] = ctor
	return nil
}

// Names returns all registered worker names in lexicographic order, so any
// first-match tie-break downstream is reproducible.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a worker name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[strings.ToLower(name)]
	return ok
}

// Create instantiates a fresh worker. Unknown names fail with an error that
// lists every currently registered worker.
func (r *Registry) Create(name string) (core.Worker, error) {
	key := strings.ToLower(name)

	r.mu.RLock()
	ctor, ok := r.ctors[key]
	r.mu.RUnlock()

	if !ok {
		return nil, trperrors.Newf(
			trperrors.CodeNotFound,
			"not registered, available: %s", strings.Join(r.Names(), ", "),
		).WithWorker(key)
	}
	return ctor(), nil
}
