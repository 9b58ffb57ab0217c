// Package storage is the persistence adapter (component G): it loads
// and saves the workflow/node/connection tables behind the
// services/graph types. Grounded on the teacher's pgStorage
// (api/services/storage/storage.go) — same DB/querier interface
// split so hydration helpers work inside or outside a transaction,
// same pgx driver and transaction-scoped SQL — adapted from the
// teacher's node_library-indirected schema to the flatter workflow/
// node/connection layout spec.md §6 specifies directly, and extended
// with the userId ownership column spec.md §8 property 7 requires.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workflowengine/pkg/enginerr"
	"workflowengine/services/graph"
)

// DB abstracts the database operations the storage layer needs.
// Satisfied by *pgxpool.Pool in production and pgxmock in tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// querier is satisfied by both pgx.Tx and pgxpool.Pool, letting
// hydration helpers run inside or outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage is the interface the rest of the engine depends on, keeping
// the runner and HTTP layer decoupled from the concrete Postgres
// implementation (same shape as the teacher's storage.Storage).
type Storage interface {
	// Load fetches a complete workflow graph restricted to userID.
	// Fails with NotFound if the workflow doesn't exist or isn't
	// owned by userID.
	Load(ctx context.Context, workflowID uuid.UUID, userID string) (*graph.Graph, error)

	// Save replaces a workflow's entire node and connection set in a
	// single transaction (spec.md §4.G, §6). Fails with NotAuthorized
	// if workflowID isn't owned by userID.
	Save(ctx context.Context, workflowID uuid.UUID, userID string, nodes []graph.Node, conns []graph.Connection) (*graph.Workflow, error)

	// Create seeds a new workflow with one INITIAL node at (0,0), per
	// spec.md §3 lifecycle.
	Create(ctx context.Context, name, userID string) (*graph.Workflow, error)

	// Delete cascades to the workflow's nodes and connections.
	Delete(ctx context.Context, workflowID uuid.UUID, userID string) error
}

// pgStorage implements Storage against PostgreSQL.
type pgStorage struct {
	db DB
}

// New returns a Postgres-backed Storage.
func New(db DB) (Storage, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: db cannot be nil")
	}
	return &pgStorage{db: db}, nil
}

// NewPool is a convenience constructor for production wiring.
func NewPool(pool *pgxpool.Pool) (Storage, error) {
	return New(pool)
}

func hydrateNodes(ctx context.Context, q querier, workflowID uuid.UUID) ([]graph.Node, error) {
	rows, err := q.Query(ctx, `
		SELECT id, workflow_id, type, name, pos_x, pos_y, data, created_at, updated_at
		FROM node
		WHERE workflow_id = $1
		ORDER BY id`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []graph.Node
	for rows.Next() {
		var n graph.Node
		if err := rows.Scan(&n.ID, &n.WorkflowID, &n.Type, &n.Name, &n.Position.X, &n.Position.Y, &n.Data, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func hydrateConnections(ctx context.Context, q querier, workflowID uuid.UUID) ([]graph.Connection, error) {
	rows, err := q.Query(ctx, `
		SELECT id, workflow_id, from_node_id, to_node_id, from_output, to_input, created_at, updated_at
		FROM connection
		WHERE workflow_id = $1
		ORDER BY id`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []graph.Connection
	for rows.Next() {
		var c graph.Connection
		if err := rows.Scan(&c.ID, &c.WorkflowID, &c.FromNodeID, &c.ToNodeID, &c.FromOutput, &c.ToInput, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

func (s *pgStorage) Load(ctx context.Context, workflowID uuid.UUID, userID string) (*graph.Graph, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("storage: begin load transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var wf graph.Workflow
	wf.ID = workflowID
	err = tx.QueryRow(ctx, `
		SELECT name, user_id, created_at, updated_at
		FROM workflow
		WHERE id = $1 AND user_id = $2`, workflowID, userID,
	).Scan(&wf.Name, &wf.UserID, &wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, enginerr.NotFound("workflow %s not found", workflowID)
		}
		return nil, fmt.Errorf("storage: load workflow header: %w", err)
	}

	nodes, err := hydrateNodes(ctx, tx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("storage: hydrate nodes: %w", err)
	}
	conns, err := hydrateConnections(ctx, tx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("storage: hydrate connections: %w", err)
	}

	if err := graph.Validate(nodes, conns); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("storage: commit load transaction: %w", err)
	}

	return &graph.Graph{Workflow: wf, Nodes: nodes, Connections: conns}, nil
}

func (s *pgStorage) Create(ctx context.Context, name, userID string) (*graph.Workflow, error) {
	id := uuid.New()
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("storage: begin create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO workflow (id, name, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)`, id, name, userID, now)
	if err != nil {
		return nil, fmt.Errorf("storage: insert workflow: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO node (id, workflow_id, type, name, pos_x, pos_y, data, created_at, updated_at)
		VALUES ($1, $2, $3, $3, 0, 0, '{}', $4, $4)`,
		uuid.New().String(), id, graph.NodeInitial, now)
	if err != nil {
		return nil, fmt.Errorf("storage: insert seed node: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("storage: commit create transaction: %w", err)
	}

	return &graph.Workflow{ID: id, Name: name, UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
}

// Save replaces the workflow's node and connection sets within a
// single transaction: delete all existing rows, then insert the
// submitted ones, per spec.md §4.G.2. Client-supplied node
// identifiers are preserved (spec.md §9 open question).
func (s *pgStorage) Save(ctx context.Context, workflowID uuid.UUID, userID string, nodes []graph.Node, conns []graph.Connection) (*graph.Workflow, error) {
	if err := graph.Validate(nodes, conns); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("storage: begin save transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var owner string
	err = tx.QueryRow(ctx, `SELECT user_id FROM workflow WHERE id = $1`, workflowID).Scan(&owner)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, enginerr.NotFound("workflow %s not found", workflowID)
		}
		return nil, fmt.Errorf("storage: load workflow owner: %w", err)
	}
	if owner != userID {
		return nil, enginerr.NotAuthorized("workflow %s is not owned by caller", workflowID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM connection WHERE workflow_id = $1`, workflowID); err != nil {
		return nil, fmt.Errorf("storage: delete connections: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM node WHERE workflow_id = $1`, workflowID); err != nil {
		return nil, fmt.Errorf("storage: delete nodes: %w", err)
	}

	now := time.Now()
	for _, n := range nodes {
		name := n.Name
		if name == "" {
			name = string(n.Type)
		}
		data := n.Data
		if len(data) == 0 {
			data = []byte(`{}`)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO node (id, workflow_id, type, name, pos_x, pos_y, data, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
			n.ID, workflowID, n.Type, name, n.Position.X, n.Position.Y, data, now)
		if err != nil {
			return nil, fmt.Errorf("storage: insert node %q: %w", n.ID, err)
		}
	}

	for _, c := range conns {
		from := c.FromOutput
		if from == "" {
			from = "main"
		}
		to := c.ToInput
		if to == "" {
			to = "main"
		}
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO connection (id, workflow_id, from_node_id, to_node_id, from_output, to_input, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
			id, workflowID, c.FromNodeID, c.ToNodeID, from, to, now)
		if err != nil {
			return nil, fmt.Errorf("storage: insert connection %q: %w", id, err)
		}
	}

	_, err = tx.Exec(ctx, `UPDATE workflow SET updated_at = $1 WHERE id = $2`, now, workflowID)
	if err != nil {
		return nil, fmt.Errorf("storage: update workflow timestamp: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("storage: commit save transaction: %w", err)
	}

	return &graph.Workflow{ID: workflowID, UserID: userID, UpdatedAt: now}, nil
}

func (s *pgStorage) Delete(ctx context.Context, workflowID uuid.UUID, userID string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("storage: begin delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var owner string
	err = tx.QueryRow(ctx, `SELECT user_id FROM workflow WHERE id = $1`, workflowID).Scan(&owner)
	if err != nil {
		if err == pgx.ErrNoRows {
			return enginerr.NotFound("workflow %s not found", workflowID)
		}
		return fmt.Errorf("storage: load workflow owner: %w", err)
	}
	if owner != userID {
		return enginerr.NotAuthorized("workflow %s is not owned by caller", workflowID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM connection WHERE workflow_id = $1`, workflowID); err != nil {
		return fmt.Errorf("storage: delete connections: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM node WHERE workflow_id = $1`, workflowID); err != nil {
		return fmt.Errorf("storage: delete nodes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workflow WHERE id = $1`, workflowID); err != nil {
		return fmt.Errorf("storage: delete workflow: %w", err)
	}

	return tx.Commit(ctx)
}
