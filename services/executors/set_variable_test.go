package executors

import (
	"context"
	"testing"

	"workflowengine/pkg/enginerr"
	"workflowengine/services/executor"
	"workflowengine/services/step"
)

func TestSetVariable_WritesConfiguredKeys(t *testing.T) {
	p := executor.Params{
		Data:    []byte(`{"variables":{"city":"Sydney","threshold":25}}`),
		NodeID:  "n1",
		Context: executor.Context{"existing": true},
		Step:    step.NewInMemory(),
	}

	out, err := SetVariable{}.Execute(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["city"] != "Sydney" {
		t.Fatalf("expected city=Sydney, got %#v", out["city"])
	}
	if out["existing"] != true {
		t.Fatalf("expected existing context to survive, got %#v", out)
	}
}

func TestSetVariable_EmptyConfigNonRetriable(t *testing.T) {
	p := executor.Params{Data: []byte(`{}`), NodeID: "n1", Context: executor.Context{}, Step: step.NewInMemory()}

	_, err := SetVariable{}.Execute(context.Background(), p)
	if err == nil {
		t.Fatal("expected error for no variables configured")
	}
	if enginerr.KindOf(err) != enginerr.KindConfig {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}
