package scheduler

import (
	"testing"

	"workflowengine/pkg/enginerr"
	"workflowengine/services/graph"
)

func node(id string) graph.Node { return graph.Node{ID: id, Type: graph.NodeManualTrigger} }

func indexOf(nodes []graph.Node, id string) int {
	for i, n := range nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// S3 — diamond order: t -> a, t -> b, a -> c, b -> c.
func TestSort_DiamondOrder(t *testing.T) {
	nodes := []graph.Node{node("t"), node("a"), node("b"), node("c")}
	edges := []graph.Edge{
		{Source: "t", Target: "a"},
		{Source: "t", Target: "b"},
		{Source: "a", Target: "c"},
		{Source: "b", Target: "c"},
	}

	out, err := Sort(nodes, edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected a permutation of 4 nodes, got %d", len(out))
	}
	if indexOf(out, "t") != 0 {
		t.Fatalf("expected t first, got order %v", ids(out))
	}
	if indexOf(out, "c") != 3 {
		t.Fatalf("expected c last, got order %v", ids(out))
	}
	if indexOf(out, "a") > indexOf(out, "c") || indexOf(out, "b") > indexOf(out, "c") {
		t.Fatalf("expected a and b before c, got order %v", ids(out))
	}
}

// S4 — cycle rejection: x -> y, y -> x.
func TestSort_CycleRejected(t *testing.T) {
	nodes := []graph.Node{node("x"), node("y")}
	edges := []graph.Edge{
		{Source: "x", Target: "y"},
		{Source: "y", Target: "x"},
	}

	_, err := Sort(nodes, edges)
	if err == nil {
		t.Fatal("expected CycleError")
	}
	if enginerr.KindOf(err) != enginerr.KindCycle {
		t.Fatalf("expected CycleError kind, got %v", err)
	}
}

// S5 — isolated node included: a -> b only, c disconnected.
func TestSort_IsolatedNodeIncluded(t *testing.T) {
	nodes := []graph.Node{node("a"), node("b"), node("c")}
	edges := []graph.Edge{{Source: "a", Target: "b"}}

	out, err := Sort(nodes, edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected all 3 nodes present, got %d: %v", len(out), ids(out))
	}
	if indexOf(out, "a") > indexOf(out, "b") {
		t.Fatalf("expected a before b, got %v", ids(out))
	}
	if indexOf(out, "c") < 0 {
		t.Fatalf("expected c present somewhere, got %v", ids(out))
	}
}

// Invariant 3 — empty connections fidelity.
func TestSort_EmptyConnectionsFidelity(t *testing.T) {
	nodes := []graph.Node{node("b"), node("a"), node("c")}

	out, err := Sort(nodes, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids(out)[0] != "b" || ids(out)[1] != "a" || ids(out)[2] != "c" {
		t.Fatalf("expected input order preserved, got %v", ids(out))
	}
}

// Invariant 2 — order is a permutation: no duplicates, no phantoms.
func TestSort_IsPermutation(t *testing.T) {
	nodes := []graph.Node{node("a"), node("b"), node("c"), node("d")}
	edges := []graph.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
	}

	out, err := Sort(nodes, edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[string]bool)
	for _, n := range out {
		if seen[n.ID] {
			t.Fatalf("duplicate node %q in output", n.ID)
		}
		seen[n.ID] = true
	}
	if len(seen) != len(nodes) {
		t.Fatalf("expected %d distinct nodes, got %d", len(nodes), len(seen))
	}
}

func ids(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
