package executors

import (
	"context"
	"encoding/json"

	"github.com/expr-lang/expr"

	"workflowengine/pkg/enginerr"
	"workflowengine/pkg/statuspub"
	"workflowengine/services/executor"
)

// conditionConfig is the tagged-variant decode target for CONDITION's
// data field: a boolean expression evaluated against the incoming
// context.
type conditionConfig struct {
	Expression string `json:"expression"`
}

// Condition evaluates a boolean expression against the execution
// context using expr-lang/expr (grounded on smilemakc-mbflow, which
// uses expr-lang/expr for the same purpose in its own node catalog).
// It writes conditionMet into the outgoing context rather than
// rewriting the graph's edges, keeping the single topological-order
// pass the scheduler computes intact (see SPEC_FULL.md §3).
type Condition struct{}

func (Condition) Execute(ctx context.Context, p executor.Params) (executor.Context, error) {
	p.Emit(ctx, statuspub.StatusLoading, "")

	var cfg conditionConfig
	if err := json.Unmarshal(p.Data, &cfg); err != nil {
		err := enginerr.ConfigWrap(err, "Condition node: invalid data")
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}
	if cfg.Expression == "" {
		err := enginerr.Config("Condition node: no expression configured")
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}

	result, err := p.Step.Run(ctx, p.NodeID+":condition", func(ctx context.Context) (any, error) {
		program, err := expr.Compile(cfg.Expression, expr.Env(map[string]any(p.Context)), expr.AsBool())
		if err != nil {
			return nil, enginerr.ConfigWrap(err, "Condition node: invalid expression %q", cfg.Expression)
		}
		out, err := expr.Run(program, map[string]any(p.Context))
		if err != nil {
			return nil, enginerr.ConfigWrap(err, "Condition node: failed to evaluate expression %q", cfg.Expression)
		}
		met, _ := out.(bool)
		return met, nil
	})
	if err != nil {
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}

	out := p.Context.With(map[string]any{"conditionMet": result})
	p.Emit(ctx, statuspub.StatusSuccess, "")
	return out, nil
}
