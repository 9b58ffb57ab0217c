// Package step provides two implementations of the executor.Step
// durability primitive: an in-memory one for unit tests (per spec.md
// §9's guidance to treat step.Run as an abstract dependency), and a
// Postgres-checkpointed one for production use (services/step's
// pgstep.go).
package step

import (
	"context"
	"sync"
)

// InMemory runs each thunk at most once per name for the lifetime of
// the process holding it; it has no persistence, so a process restart
// loses all checkpoints. Safe for concurrent use.
type InMemory struct {
	mu     sync.Mutex
	cached map[string]any
	ran    map[string]bool
}

// NewInMemory returns a ready-to-use in-memory Step.
func NewInMemory() *InMemory {
	return &InMemory{
		cached: make(map[string]any),
		ran:    make(map[string]bool),
	}
}

// Run executes thunk the first time it is called for name, caching and
// returning the result on every subsequent call for the same name. A
// thunk that returns an error is not cached, so the next call for that
// name runs its thunk again.
func (s *InMemory) Run(ctx context.Context, name string, thunk func(ctx context.Context) (any, error)) (any, error) {
	s.mu.Lock()
	if s.ran[name] {
		v := s.cached[name]
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	v, err := thunk(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.ran[name] = true
	s.cached[name] = v
	s.mu.Unlock()
	return v, nil
}
