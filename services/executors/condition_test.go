package executors

import (
	"context"
	"testing"

	"workflowengine/pkg/enginerr"
	"workflowengine/services/executor"
	"workflowengine/services/step"
)

func TestCondition_EvaluatesTrue(t *testing.T) {
	p := executor.Params{
		Data:    []byte(`{"expression":"temperature > 25"}`),
		NodeID:  "n1",
		Context: executor.Context{"temperature": 30.0},
		Step:    step.NewInMemory(),
	}

	out, err := Condition{}.Execute(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["conditionMet"] != true {
		t.Fatalf("expected conditionMet=true, got %#v", out["conditionMet"])
	}
	// Invariant 5 — output is a superset of input.
	if out["temperature"] != 30.0 {
		t.Fatalf("expected temperature to survive in output context, got %#v", out)
	}
}

func TestCondition_EvaluatesFalse(t *testing.T) {
	p := executor.Params{
		Data:    []byte(`{"expression":"temperature > 25"}`),
		NodeID:  "n1",
		Context: executor.Context{"temperature": 10.0},
		Step:    step.NewInMemory(),
	}

	out, err := Condition{}.Execute(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["conditionMet"] != false {
		t.Fatalf("expected conditionMet=false, got %#v", out["conditionMet"])
	}
}

func TestCondition_MissingExpressionNonRetriable(t *testing.T) {
	p := executor.Params{Data: []byte(`{}`), NodeID: "n1", Context: executor.Context{}, Step: step.NewInMemory()}

	_, err := Condition{}.Execute(context.Background(), p)
	if err == nil {
		t.Fatal("expected error for missing expression")
	}
	if enginerr.KindOf(err) != enginerr.KindConfig {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestCondition_InvalidExpressionNonRetriable(t *testing.T) {
	p := executor.Params{Data: []byte(`{"expression":"not ( valid"}`), NodeID: "n1", Context: executor.Context{}, Step: step.NewInMemory()}

	_, err := Condition{}.Execute(context.Background(), p)
	if err == nil {
		t.Fatal("expected error for invalid expression")
	}
	if enginerr.IsRetriable(err) {
		t.Fatalf("expected non-retriable error, got %v", err)
	}
}
