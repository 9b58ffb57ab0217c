// Package runner implements the workflow runner (component F): the
// only stateful orchestrator. It owns the durability boundary — every
// suspension point is a step.Run call — and the A->B->D->C->E control
// flow spec.md §2 and §4.F describe.
//
// Grounded on the teacher's executeWorkflow (api/services/workflow/
// engine.go), generalized from the teacher's single-path graph walk
// (follow the one correct outgoing edge, condition-branch included) to
// a precomputed topological order, since spec.md's Non-goals (no
// partial re-execution) and §8 scenario S3 (diamond order) both
// require a full linearization rather than a branch-driven walk.
package runner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"workflowengine/pkg/enginerr"
	"workflowengine/pkg/statuspub"
	"workflowengine/services/executor"
	"workflowengine/services/graph"
	"workflowengine/services/registry"
	"workflowengine/services/scheduler"
	"workflowengine/services/storage"
)

// TriggerEvent carries the payload spec.md §6 names
// (workflow/execute.workflow: workflowId + optional initialData), plus
// two fields the out-of-scope transport is expected to supply:
// ExecutionID, a delivery-stable identifier the durability Step keys
// checkpoints on (so redelivery of the same logical execution resumes
// rather than restarts), and UserID, the owning user already
// authorized at publish time (spec.md §6 "Trigger invocation") but
// carried through so the load at the durability boundary can
// defensively re-check ownership rather than trust the transport
// blindly.
type TriggerEvent struct {
	WorkflowID  string         `json:"workflowId"`
	UserID      string         `json:"userId,omitempty"`
	ExecutionID uuid.UUID      `json:"executionId,omitempty"`
	InitialData map[string]any `json:"initialData,omitempty"`
}

// Result is the runner's final execution result (spec.md §4.F.5).
type Result struct {
	WorkflowID string
	Context    executor.Context
}

// StepFactory builds the durability Step to use for a given execution.
// Production wiring supplies one backed by services/step.Postgres;
// tests supply services/step.NewInMemory.
type StepFactory func(executionID uuid.UUID) executor.Step

// Runner is the only stateful orchestrator in the engine. Multiple
// executions of the same workflow may run concurrently; each gets its
// own Context value and its own Step, and they share no in-memory
// state (spec.md §4.F "Concurrency", §5).
type Runner struct {
	Storage  storage.Storage
	Registry *registry.Registry
	NewStep  StepFactory
	Status   statuspub.Sink
}

type preparedWorkflow struct {
	Nodes []graph.Node `json:"nodes"`
}

// Execute runs event's workflow end to end: load, schedule, then
// invoke each node's executor in order, threading the execution
// context through. An error from any node or from the prepare step
// aborts the workflow; the transport decides whether to retry based
// on the error's retriability (pkg/enginerr).
func (r *Runner) Execute(ctx context.Context, event TriggerEvent) (*Result, error) {
	if event.WorkflowID == "" {
		return nil, enginerr.Config("execute: workflowId is required")
	}

	executionID := event.ExecutionID
	if executionID == uuid.Nil {
		executionID = uuid.New()
	}
	stepImpl := r.NewStep(executionID)

	wfUUID, err := uuid.Parse(event.WorkflowID)
	if err != nil {
		return nil, enginerr.ConfigWrap(err, "execute: invalid workflowId %q", event.WorkflowID)
	}

	prepared, err := stepImpl.Run(ctx, "prepare-workflow", func(ctx context.Context) (any, error) {
		g, err := r.Storage.Load(ctx, wfUUID, event.UserID)
		if err != nil {
			return nil, err
		}

		edges := graph.ToExecutionEdges(g.Connections)
		ordered, err := scheduler.Sort(g.Nodes, edges)
		if err != nil {
			return nil, err
		}

		return preparedWorkflow{Nodes: ordered}, nil
	})
	if err != nil {
		return nil, err
	}

	pw, err := asPreparedWorkflow(prepared)
	if err != nil {
		return nil, enginerr.ConfigWrap(err, "execute: malformed prepared-workflow checkpoint")
	}

	runCtx := executor.Context{}
	for k, v := range event.InitialData {
		runCtx[k] = v
	}

	for _, node := range pw.Nodes {
		exec, err := r.Registry.Lookup(node.Type)
		if err != nil {
			return nil, err
		}

		params := executor.Params{
			Data:       node.Data,
			WorkflowID: event.WorkflowID,
			NodeID:     node.ID,
			Context:    runCtx,
			Step:       stepImpl,
			Status:     r.Status,
		}

		out, err := exec.Execute(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("node %q (%s): %w", node.ID, node.Type, err)
		}
		runCtx = out
	}

	return &Result{WorkflowID: event.WorkflowID, Context: runCtx}, nil
}

// asPreparedWorkflow normalizes the prepare-workflow checkpoint's
// result. An in-memory Step returns the exact value the thunk
// produced; a Postgres-backed Step round-trips it through JSON, so a
// resumed execution gets back a map[string]any that needs decoding
// into the typed shape.
func asPreparedWorkflow(v any) (*preparedWorkflow, error) {
	switch t := v.(type) {
	case preparedWorkflow:
		return &t, nil
	case *preparedWorkflow:
		return t, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var pw preparedWorkflow
		if err := json.Unmarshal(raw, &pw); err != nil {
			return nil, err
		}
		return &pw, nil
	}
}
