// Package scheduler computes a legal execution order for a workflow
// graph: a topological sort that includes disconnected nodes and
// refuses to linearize a cyclic graph.
package scheduler

import (
	"sort"

	"workflowengine/pkg/enginerr"
	"workflowengine/services/graph"
)

// Sort returns nodes in an order where, for every edge u->v, u appears
// before v. Nodes with no mutual dependency are ordered arbitrarily but
// deterministically (by identifier) so repeated calls on the same
// input agree with each other.
//
// Empty-connection fast path: when edges is empty, the input order is
// returned unchanged (spec.md §4.B.1).
func Sort(nodes []graph.Node, edges []graph.Edge) ([]graph.Node, error) {
	if len(edges) == 0 {
		out := make([]graph.Node, len(nodes))
		copy(out, nodes)
		return out, nil
	}

	byID := make(map[string]graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	adjacency := make(map[string]map[string]bool)
	inDegree := make(map[string]int)
	for _, n := range nodes {
		adjacency[n.ID] = make(map[string]bool)
		inDegree[n.ID] = 0
	}

	for _, e := range edges {
		if adjacency[e.Source][e.Target] {
			continue // de-dup parallel edges between the same pair
		}
		adjacency[e.Source][e.Target] = true
		inDegree[e.Target]++
	}

	// Kahn's algorithm, with ties among ready nodes broken by
	// identifier so the result is reproducible. Isolated nodes have
	// in-degree 0 and no outgoing edges, so they surface the same way
	// any other source node would (spec.md §4.B.2).
	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		targets := make([]string, 0, len(adjacency[id]))
		for t := range adjacency[id] {
			targets = append(targets, t)
		}
		sort.Strings(targets)

		for _, t := range targets {
			inDegree[t]--
			if inDegree[t] == 0 {
				ready = insertSorted(ready, t)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, enginerr.Cycle("workflow graph contains a cycle")
	}

	result := make([]graph.Node, 0, len(order))
	for _, id := range order {
		if n, ok := byID[id]; ok {
			result = append(result, n)
		}
	}
	return result, nil
}

func insertSorted(sorted []string, v string) []string {
	i := sort.SearchStrings(sorted, v)
	sorted = append(sorted, "")
	copy(sorted[i+1:], sorted[i:])
	sorted[i] = v
	return sorted
}
