package executors

import (
	"context"
	"encoding/json"
	"time"

	"workflowengine/pkg/enginerr"
	"workflowengine/pkg/statuspub"
	"workflowengine/services/executor"
)

// delayConfig is the tagged-variant decode target for DELAY's data
// field.
type delayConfig struct {
	Milliseconds int `json:"milliseconds"`
}

// Delay sleeps for a configured duration inside step.Run. Unlike the
// other reference executors, its principal "effect" (time passing) is
// not idempotent in the ordinary sense — re-running it would simply
// wait again, which is harmless but wasteful — so checkpointing it is
// what lets a resumed execution skip straight past a wait it already
// satisfied. Grounded on smilemakc-mbflow's node catalog, which
// includes a sleep/delay node alongside its HTTP and LLM nodes.
type Delay struct{}

func (Delay) Execute(ctx context.Context, p executor.Params) (executor.Context, error) {
	p.Emit(ctx, statuspub.StatusLoading, "")

	var cfg delayConfig
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &cfg); err != nil {
			err := enginerr.ConfigWrap(err, "Delay node: invalid data")
			p.Emit(ctx, statuspub.StatusError, err.Error())
			return nil, err
		}
	}
	if cfg.Milliseconds < 0 {
		err := enginerr.Config("Delay node: milliseconds must be non-negative, got %d", cfg.Milliseconds)
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}

	_, err := p.Step.Run(ctx, p.NodeID+":delay", func(ctx context.Context) (any, error) {
		timer := time.NewTimer(time.Duration(cfg.Milliseconds) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-timer.C:
			return true, nil
		case <-ctx.Done():
			return nil, enginerr.TransientWrap(ctx.Err(), "Delay node: cancelled before elapsing")
		}
	})
	if err != nil {
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}

	p.Emit(ctx, statuspub.StatusSuccess, "")
	return p.Context.Clone(), nil
}
