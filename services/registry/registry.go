// Package registry holds the process-wide, static mapping from node
// type to its Executor. Registration happens at process start
// (services/executors registers its handlers into a Registry built by
// cmd/server); there is no hot-registration, and lookup of an
// unregistered type fails fast rather than falling through to a
// default handler.
package registry

import (
	"sync"

	"workflowengine/pkg/enginerr"
	"workflowengine/services/executor"
	"workflowengine/services/graph"
)

// Registry is a static map from node type to Executor. The zero value
// is not usable; construct with New.
type Registry struct {
	mu        sync.RWMutex
	executors map[graph.NodeType]executor.Executor
}

// New returns an empty Registry ready for Register calls.
func New() *Registry {
	return &Registry{executors: make(map[graph.NodeType]executor.Executor)}
}

// Register associates t with exec. Calling Register twice for the
// same type replaces the previous executor; callers normally do all
// registration once at process start.
func (r *Registry) Register(t graph.NodeType, exec executor.Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[t] = exec
	graph.RegisterType(t)
}

// Alias registers existing's executor under alias as well, so alias
// is a synonym rather than a separately implemented handler (e.g.
// INITIAL aliasing MANUAL_TRIGGER's executor).
func (r *Registry) Alias(alias, existing graph.NodeType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exec, ok := r.executors[existing]
	if !ok {
		return enginerr.Config("cannot alias %q: %q has no registered executor", alias, existing)
	}
	r.executors[alias] = exec
	graph.RegisterType(alias)
	return nil
}

// Lookup returns the Executor registered for t. Lookup over an
// unregistered type fails with a non-retriable ConfigError, never a
// nil Executor.
func (r *Registry) Lookup(t graph.NodeType) (executor.Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executors[t]
	if !ok {
		return nil, enginerr.Config("no executor for type %s", t)
	}
	return exec, nil
}
