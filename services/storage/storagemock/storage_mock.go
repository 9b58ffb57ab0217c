// Package storagemock provides a hand-written Storage test double,
// grounded on the teacher's storagemock package
// (api/services/storage/storagemock/storage_mock.go): a struct of
// optional per-method function fields with sensible defaults, rather
// than a generated or reflection-based mock.
package storagemock

import (
	"context"

	"github.com/google/uuid"

	"workflowengine/services/graph"
)

type StorageMock struct {
	LoadFunc   func(ctx context.Context, workflowID uuid.UUID, userID string) (*graph.Graph, error)
	SaveFunc   func(ctx context.Context, workflowID uuid.UUID, userID string, nodes []graph.Node, conns []graph.Connection) (*graph.Workflow, error)
	CreateFunc func(ctx context.Context, name, userID string) (*graph.Workflow, error)
	DeleteFunc func(ctx context.Context, workflowID uuid.UUID, userID string) error
}

func (m *StorageMock) Load(ctx context.Context, workflowID uuid.UUID, userID string) (*graph.Graph, error) {
	if m != nil && m.LoadFunc != nil {
		return m.LoadFunc(ctx, workflowID, userID)
	}
	return &graph.Graph{Workflow: graph.Workflow{ID: workflowID, UserID: userID}}, nil
}

func (m *StorageMock) Save(ctx context.Context, workflowID uuid.UUID, userID string, nodes []graph.Node, conns []graph.Connection) (*graph.Workflow, error) {
	if m != nil && m.SaveFunc != nil {
		return m.SaveFunc(ctx, workflowID, userID, nodes, conns)
	}
	return &graph.Workflow{ID: workflowID, UserID: userID}, nil
}

func (m *StorageMock) Create(ctx context.Context, name, userID string) (*graph.Workflow, error) {
	if m != nil && m.CreateFunc != nil {
		return m.CreateFunc(ctx, name, userID)
	}
	return &graph.Workflow{ID: uuid.New(), Name: name, UserID: userID}, nil
}

func (m *StorageMock) Delete(ctx context.Context, workflowID uuid.UUID, userID string) error {
	if m != nil && m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, workflowID, userID)
	}
	return nil
}
