package graph

import (
	"testing"

	"workflowengine/pkg/enginerr"
)

func TestToExecutionEdges_DefaultsHandles(t *testing.T) {
	conns := []Connection{
		{ID: "c1", FromNodeID: "n1", ToNodeID: "n2"},
		{ID: "c2", FromNodeID: "n2", ToNodeID: "n3", FromOutput: "true", ToInput: "in"},
	}

	edges := ToExecutionEdges(conns)

	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if edges[0].SourceHandle != "main" || edges[0].TargetHandle != "main" {
		t.Fatalf("expected default main/main handles, got %+v", edges[0])
	}
	if edges[1].SourceHandle != "true" || edges[1].TargetHandle != "in" {
		t.Fatalf("expected preserved handles, got %+v", edges[1])
	}
	if edges[0].Source != "n1" || edges[0].Target != "n2" {
		t.Fatalf("expected identity-preserving rename, got %+v", edges[0])
	}
}

func TestValidate_UnknownNodeType(t *testing.T) {
	nodes := []Node{{ID: "n1", Type: "NOT_A_TYPE"}}

	err := Validate(nodes, nil)
	if err == nil {
		t.Fatal("expected error for unregistered node type")
	}
	if enginerr.KindOf(err) != enginerr.KindConfig {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestValidate_DanglingConnection(t *testing.T) {
	nodes := []Node{{ID: "n1", Type: NodeManualTrigger}}
	conns := []Connection{{ID: "c1", FromNodeID: "n1", ToNodeID: "ghost"}}

	err := Validate(nodes, conns)
	if err == nil {
		t.Fatal("expected error for connection referencing unknown node")
	}
	if enginerr.KindOf(err) != enginerr.KindConfig {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestValidate_Clean(t *testing.T) {
	nodes := []Node{
		{ID: "n1", Type: NodeManualTrigger},
		{ID: "n2", Type: NodeHTTPRequest},
	}
	conns := []Connection{{ID: "c1", FromNodeID: "n1", ToNodeID: "n2"}}

	if err := Validate(nodes, conns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
