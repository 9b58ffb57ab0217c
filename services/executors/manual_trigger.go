// Package executors holds the concrete node-type handlers: the two
// reference executors spec.md names (manual-trigger, HTTP-request)
// plus the extension node types SPEC_FULL.md adds (condition,
// set-variable, delay), all implementing services/executor.Executor.
package executors

import (
	"context"

	"workflowengine/pkg/statuspub"
	"workflowengine/services/executor"
)

// ManualTrigger is a no-op executor whose only purpose is to create a
// durability boundary at the workflow entry point: step.Run keyed on
// this node's ID checkpoints the incoming context unchanged, so a
// restart after the trigger fires does not re-observe the trigger
// event. INITIAL is registered as an alias of this executor (spec.md
// §3, §4.D).
type ManualTrigger struct{}

func (ManualTrigger) Execute(ctx context.Context, p executor.Params) (executor.Context, error) {
	p.Emit(ctx, statuspub.StatusLoading, "")

	result, err := p.Step.Run(ctx, p.NodeID+":manual-trigger", func(ctx context.Context) (any, error) {
		return map[string]any(p.Context.Clone()), nil
	})
	if err != nil {
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}

	p.Emit(ctx, statuspub.StatusSuccess, "")
	return toContext(result), nil
}

// toContext coerces a step.Run result (which round-trips through
// `any` and, once checkpointed, through JSON) back into an
// executor.Context.
func toContext(v any) executor.Context {
	if v == nil {
		return executor.Context{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return executor.Context{}
	}
	return executor.Context(m)
}
