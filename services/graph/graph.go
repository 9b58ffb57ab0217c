// Package graph owns the storage<->execution shape of a workflow graph:
// node/connection types, the closed node-type enumeration, and the
// transformation between the persisted connection shape and the edge
// shape the scheduler and runner operate on.
package graph

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"workflowengine/pkg/enginerr"
)

// NodeType is the closed, extensible enumeration of node kinds a
// workflow graph may contain. New kinds are added by extending this
// set and registering an executor for them (services/registry).
type NodeType string

const (
	NodeManualTrigger NodeType = "MANUAL_TRIGGER"
	NodeInitial       NodeType = "INITIAL"
	NodeHTTPRequest   NodeType = "HTTP_REQUEST"
	NodeCondition     NodeType = "CONDITION"
	NodeSetVariable   NodeType = "SET_VARIABLE"
	NodeDelay         NodeType = "DELAY"
)

// registeredTypes is the set node.Type values must belong to. Load
// fails fast with a ConfigError for anything outside it.
var registeredTypes = map[NodeType]bool{
	NodeManualTrigger: true,
	NodeInitial:       true,
	NodeHTTPRequest:   true,
	NodeCondition:     true,
	NodeSetVariable:   true,
	NodeDelay:         true,
}

// Position is a node's opaque canvas coordinate pair. The engine never
// interprets these; they pass through storage and back.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex in a workflow graph. Data is schema-less at this
// layer; each executor is responsible for decoding and validating its
// own shape at execution time (see services/executors).
type Node struct {
	ID         string          `json:"id"`
	WorkflowID uuid.UUID       `json:"workflowId"`
	Type       NodeType        `json:"type"`
	Name       string          `json:"name"`
	Position   Position        `json:"position"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

const defaultHandle = "main"

// Connection is a directed storage-shape edge between two nodes in the
// same workflow. Handle names default to "main" when empty.
type Connection struct {
	ID           string    `json:"id"`
	WorkflowID   uuid.UUID `json:"workflowId"`
	FromNodeID   string    `json:"fromNodeId"`
	ToNodeID     string    `json:"toNodeId"`
	FromOutput   string    `json:"fromOutput"`
	ToInput      string    `json:"toInput"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Edge is the execution-view rename of Connection: source/target/
// sourceHandle/targetHandle, per spec.md §3. Identity is preserved:
// FromNodeID->Source, ToNodeID->Target, FromOutput->SourceHandle,
// ToInput->TargetHandle.
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// Workflow is a user-owned collection of nodes and connections.
type Workflow struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Graph is the full hydrated read of a workflow: header plus its nodes
// and connections, as returned by Loader.Load.
type Graph struct {
	Workflow    Workflow
	Nodes       []Node
	Connections []Connection
}

// Loader fetches a complete workflow graph, restricted to the owning
// user. Implemented by services/storage against Postgres.
type Loader interface {
	Load(ctx context.Context, workflowID uuid.UUID, userID string) (*Graph, error)
}

// ToExecutionEdges renames connection fields to the execution edge
// shape, defaulting empty handle names to "main".
func ToExecutionEdges(conns []Connection) []Edge {
	edges := make([]Edge, 0, len(conns))
	for _, c := range conns {
		from := c.FromOutput
		if from == "" {
			from = defaultHandle
		}
		to := c.ToInput
		if to == "" {
			to = defaultHandle
		}
		edges = append(edges, Edge{
			Source:       c.FromNodeID,
			Target:       c.ToNodeID,
			SourceHandle: from,
			TargetHandle: to,
		})
	}
	return edges
}

// Validate checks shape invariants enforced on load: every connection
// references nodes present in the workflow, and every node type
// belongs to the registered enumeration. Unknown types and dangling
// edges both fail with a non-retriable ConfigError.
func Validate(nodes []Node, conns []Connection) error {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if !registeredTypes[n.Type] {
			return enginerr.Config("node %q has unregistered type %q", n.ID, n.Type)
		}
		ids[n.ID] = true
	}
	for _, c := range conns {
		if !ids[c.FromNodeID] {
			return enginerr.Config("connection %q references unknown source node %q", c.ID, c.FromNodeID)
		}
		if !ids[c.ToNodeID] {
			return enginerr.Config("connection %q references unknown target node %q", c.ID, c.ToNodeID)
		}
	}
	return nil
}

// RegisterType extends the closed enumeration with a new node type.
// Intended for process-start registration alongside an executor
// (services/registry.Register); there is no hot-registration.
func RegisterType(t NodeType) {
	registeredTypes[t] = true
}

// IsRegistered reports whether t belongs to the current enumeration.
func IsRegistered(t NodeType) bool {
	return registeredTypes[t]
}
