package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"workflowengine/pkg/enginerr"
	"workflowengine/services/runner"
)

// WorkerConfig configures a Worker's polling loop.
type WorkerConfig struct {
	Group    string
	Consumer string
	Count    int64
	Block    time.Duration
}

// DefaultWorkerConfig returns reasonable polling defaults: a handful
// of messages per read, blocking up to 5s when the stream is idle.
func DefaultWorkerConfig(group, consumer string) WorkerConfig {
	return WorkerConfig{Group: group, Consumer: consumer, Count: 10, Block: 5 * time.Second}
}

// Worker drains the execution stream and hands each event to a
// runner.Runner, acknowledging it once the outcome is final: success,
// or a non-retriable error. A retriable error is left unacknowledged
// so Redis redelivers it to another consumer in the group, which is
// exactly the semantics services/step's at-most-once checkpointing is
// built to tolerate.
type Worker struct {
	Client *Client
	Runner *runner.Runner
	Config WorkerConfig
	Logger zerolog.Logger
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Client.EnsureGroup(ctx, w.Config.Group); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messages, err := w.Client.Consume(ctx, w.Config.Group, w.Config.Consumer, w.Config.Count, w.Config.Block)
		if err != nil {
			w.Logger.Error().Err(err).Msg("queue: consume failed")
			continue
		}

		for _, msg := range messages {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg Message) {
	var event runner.TriggerEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		w.Logger.Error().Err(err).Str("message_id", msg.ID).Msg("queue: malformed trigger event, acking to drop")
		_ = w.Client.Ack(ctx, w.Config.Group, msg.ID)
		return
	}

	result, err := w.Runner.Execute(ctx, event)
	if err == nil {
		w.Logger.Info().Str("workflow_id", result.WorkflowID).Str("message_id", msg.ID).Msg("execution succeeded")
		_ = w.Client.Ack(ctx, w.Config.Group, msg.ID)
		return
	}

	if enginerr.IsRetriable(err) {
		w.Logger.Warn().Err(err).Str("message_id", msg.ID).Msg("execution failed retriably, leaving unacked for redelivery")
		return
	}

	w.Logger.Error().Err(err).Str("message_id", msg.ID).Msg("execution failed non-retriably, acking to drop")
	_ = w.Client.Ack(ctx, w.Config.Group, msg.ID)
}
