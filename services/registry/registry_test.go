package registry

import (
	"context"
	"testing"

	"workflowengine/pkg/enginerr"
	"workflowengine/services/executor"
	"workflowengine/services/graph"
)

func noop(ctx context.Context, p executor.Params) (executor.Context, error) {
	return p.Context, nil
}

func TestLookup_UnknownTypeFails(t *testing.T) {
	r := New()
	_, err := r.Lookup(graph.NodeType("GHOST"))
	if err == nil {
		t.Fatal("expected error for unregistered type")
	}
	if enginerr.KindOf(err) != enginerr.KindConfig {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.Register(graph.NodeManualTrigger, executor.ExecutorFunc(noop))

	exec, err := r.Lookup(graph.NodeManualTrigger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec == nil {
		t.Fatal("expected non-nil executor")
	}
}

func TestAlias_InitialAliasesManualTrigger(t *testing.T) {
	r := New()
	r.Register(graph.NodeManualTrigger, executor.ExecutorFunc(noop))
	if err := r.Alias(graph.NodeInitial, graph.NodeManualTrigger); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exec, err := r.Lookup(graph.NodeInitial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec == nil {
		t.Fatal("expected non-nil executor for aliased type")
	}
}

func TestAlias_UnknownExistingFails(t *testing.T) {
	r := New()
	err := r.Alias(graph.NodeInitial, graph.NodeManualTrigger)
	if err == nil {
		t.Fatal("expected error aliasing an unregistered type")
	}
}
