package observability

import (
	"context"

	"github.com/rs/zerolog"

	"workflowengine/pkg/statuspub"
)

// LoggingSink implements statuspub.Sink by writing each status
// transition as a structured log line. It stands in for the
// out-of-scope real-time UI channel (spec.md §9 Open Question) until
// that channel exists: every status transition the engine already
// emits is at least observable in the logs.
type LoggingSink struct {
	Logger zerolog.Logger
}

func (s LoggingSink) Publish(ctx context.Context, workflowID, nodeID string, status statuspub.Status, detail string) {
	event := s.Logger.Info()
	if status == statuspub.StatusError {
		event = s.Logger.Error()
	}
	event.
		Str("workflowId", workflowID).
		Str("nodeId", nodeID).
		Str("status", string(status)).
		Str("detail", detail).
		Msg("node status")
}
