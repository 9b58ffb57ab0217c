// Package executor defines the uniform contract every node-type
// handler implements, the execution context type threaded between
// nodes, and the durable Step primitive executors use to checkpoint
// their principal side effect.
package executor

import (
	"context"
	"encoding/json"

	"workflowengine/pkg/statuspub"
)

// Context is the unordered key-value mapping threaded between nodes
// during a single execution. It is the sole data channel between
// nodes. Executors MUST NOT mutate the Context they receive; they
// return a new one that is a superset of or replacement for it (see
// Context.With).
type Context map[string]any

// With returns a new Context containing every key of c plus the keys
// in overlay, with overlay's values winning on conflict. c is left
// untouched, satisfying the "return a fresh context" contract.
func (c Context) With(overlay map[string]any) Context {
	out := make(Context, len(c)+len(overlay))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of c.
func (c Context) Clone() Context {
	return c.With(nil)
}

// Step is the durability primitive the runner supplies to every
// executor invocation. Run executes thunk at most once across all
// process lifetimes for a given (execution, name) pair; on resume
// after a crash the previously checkpointed value is returned without
// re-running thunk. Thunks MUST be idempotent for external effects or
// rely on server-side deduplication, since a crash between thunk
// returning and the result being checkpointed can cause a re-run.
type Step interface {
	Run(ctx context.Context, name string, thunk func(ctx context.Context) (any, error)) (any, error)
}

// Params bundles the inputs an Executor receives for a single node
// invocation.
type Params struct {
	Data       json.RawMessage // node-type-specific configuration, decoded by the executor
	WorkflowID string
	NodeID     string
	Context    Context // read-only input context
	Step       Step
	Status     statuspub.Sink // status emission point; NoOp by default
}

// Emit publishes a status transition for this node, tolerating a nil
// Sink (falls back to NoOp) so executors don't need to nil-check.
func (p Params) Emit(ctx context.Context, status statuspub.Status, detail string) {
	sink := p.Status
	if sink == nil {
		sink = statuspub.NoOp{}
	}
	sink.Publish(ctx, p.WorkflowID, p.NodeID, status, detail)
}

// Executor is the uniform, type-specific handler every registered
// node kind implements. A decode failure on Data is a non-retriable
// ConfigError (see pkg/enginerr); everything else an executor returns
// defaults to retriable unless explicitly tagged otherwise.
type Executor interface {
	Execute(ctx context.Context, params Params) (Context, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, params Params) (Context, error)

func (f ExecutorFunc) Execute(ctx context.Context, params Params) (Context, error) {
	return f(ctx, params)
}
