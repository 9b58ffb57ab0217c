package executors

import (
	"context"
	"encoding/json"

	"workflowengine/pkg/enginerr"
	"workflowengine/pkg/statuspub"
	"workflowengine/services/executor"
)

// setVariableConfig is the tagged-variant decode target for
// SET_VARIABLE's data field: a fixed set of key/value pairs written
// into the outgoing context. Values are literal JSON values, not
// templated strings (templating is out of scope, per spec.md's HTTP-
// request body note).
type setVariableConfig struct {
	Variables map[string]any `json:"variables"`
}

// SetVariable writes literal values into the context. Grounded on the
// teacher's FormNode (api/services/nodes/node_form.go), which reads
// declared fields out of the context; SetVariable generalizes that
// read-path into a write-path for the same "declare named fields"
// shape.
type SetVariable struct{}

func (SetVariable) Execute(ctx context.Context, p executor.Params) (executor.Context, error) {
	p.Emit(ctx, statuspub.StatusLoading, "")

	var cfg setVariableConfig
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &cfg); err != nil {
			err := enginerr.ConfigWrap(err, "Set Variable node: invalid data")
			p.Emit(ctx, statuspub.StatusError, err.Error())
			return nil, err
		}
	}
	if len(cfg.Variables) == 0 {
		err := enginerr.Config("Set Variable node: no variables configured")
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}

	result, err := p.Step.Run(ctx, p.NodeID+":set-variable", func(ctx context.Context) (any, error) {
		return cfg.Variables, nil
	})
	if err != nil {
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}

	merged, _ := result.(map[string]any)
	out := p.Context.With(merged)
	p.Emit(ctx, statuspub.StatusSuccess, "")
	return out, nil
}
