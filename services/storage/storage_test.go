package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"workflowengine/pkg/enginerr"
	"workflowengine/services/graph"
)

var (
	testWfID   = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	testUserID = "user-1"
	testNow    = time.Now()
)

func TestLoad_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBeginTx(pgxmock.AnyTxOptions())
	mock.ExpectQuery("SELECT name, user_id, created_at, updated_at").
		WithArgs(testWfID, testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"name", "user_id", "created_at", "updated_at"}).
			AddRow("My Workflow", testUserID, testNow, testNow))
	mock.ExpectQuery("SELECT id, workflow_id, type, name, pos_x, pos_y, data, created_at, updated_at").
		WithArgs(testWfID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "workflow_id", "type", "name", "pos_x", "pos_y", "data", "created_at", "updated_at"}).
			AddRow("n1", testWfID, graph.NodeManualTrigger, "n1", 0.0, 0.0, []byte(`{}`), testNow, testNow))
	mock.ExpectQuery("SELECT id, workflow_id, from_node_id, to_node_id, from_output, to_input, created_at, updated_at").
		WithArgs(testWfID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "workflow_id", "from_node_id", "to_node_id", "from_output", "to_input", "created_at", "updated_at"}))
	mock.ExpectCommit()

	s, err := New(mock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g, err := s.Load(context.Background(), testWfID, testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Workflow.Name != "My Workflow" {
		t.Fatalf("unexpected workflow name: %q", g.Workflow.Name)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "n1" {
		t.Fatalf("unexpected nodes: %+v", g.Nodes)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoad_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBeginTx(pgxmock.AnyTxOptions())
	mock.ExpectQuery("SELECT name, user_id, created_at, updated_at").
		WithArgs(testWfID, testUserID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	s, _ := New(mock)
	_, err = s.Load(context.Background(), testWfID, testUserID)
	if err == nil {
		t.Fatal("expected NotFound error")
	}
	if enginerr.KindOf(err) != enginerr.KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestSave_NotAuthorized(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBeginTx(pgxmock.AnyTxOptions())
	mock.ExpectQuery("SELECT user_id FROM workflow").
		WithArgs(testWfID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("someone-else"))
	mock.ExpectRollback()

	s, _ := New(mock)
	nodes := []graph.Node{{ID: "n1", Type: graph.NodeManualTrigger}}
	_, err = s.Save(context.Background(), testWfID, testUserID, nodes, nil)
	if err == nil {
		t.Fatal("expected NotAuthorized error")
	}
	if enginerr.KindOf(err) != enginerr.KindNotAuthorized {
		t.Fatalf("expected NotAuthorized, got %v", err)
	}
}

func TestSave_ReplacesNodesAndConnections(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	nodes := []graph.Node{{ID: "n1", Type: graph.NodeManualTrigger}, {ID: "n2", Type: graph.NodeHTTPRequest}}
	conns := []graph.Connection{{ID: "c1", FromNodeID: "n1", ToNodeID: "n2"}}

	mock.ExpectBeginTx(pgxmock.AnyTxOptions())
	mock.ExpectQuery("SELECT user_id FROM workflow").
		WithArgs(testWfID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(testUserID))
	mock.ExpectExec("DELETE FROM connection").WithArgs(testWfID).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM node").WithArgs(testWfID).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO node").WithArgs(
		"n1", testWfID, graph.NodeManualTrigger, "MANUAL_TRIGGER", 0.0, 0.0, json.RawMessage("{}"), pgxmock.AnyArg(),
	).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO node").WithArgs(
		"n2", testWfID, graph.NodeHTTPRequest, "HTTP_REQUEST", 0.0, 0.0, json.RawMessage("{}"), pgxmock.AnyArg(),
	).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO connection").WithArgs(
		"c1", testWfID, "n1", "n2", "main", "main", pgxmock.AnyArg(),
	).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE workflow SET updated_at").WithArgs(pgxmock.AnyArg(), testWfID).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	s, _ := New(mock)
	wf, err := s.Save(context.Background(), testWfID, testUserID, nodes, conns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wf.ID != testWfID {
		t.Fatalf("unexpected workflow id: %v", wf.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
