package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements creates the workflow, node, connection, and
// step_checkpoints tables the storage and step packages query.
// Grounded on leofalp-aigo's pgmemory.EnsureSchema: a plain ordered
// list of idempotent CREATE TABLE/INDEX statements, not a migration
// framework, since the pack carries no migration tooling for Postgres
// schema management.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS workflow (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_workflow_user_id ON workflow (user_id)`,
	`CREATE TABLE IF NOT EXISTS node (
		id          TEXT NOT NULL,
		workflow_id UUID NOT NULL REFERENCES workflow(id),
		type        TEXT NOT NULL,
		name        TEXT NOT NULL,
		pos_x       DOUBLE PRECISION NOT NULL DEFAULT 0,
		pos_y       DOUBLE PRECISION NOT NULL DEFAULT 0,
		data        JSONB NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (workflow_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS connection (
		id            TEXT NOT NULL,
		workflow_id   UUID NOT NULL REFERENCES workflow(id),
		from_node_id  TEXT NOT NULL,
		to_node_id    TEXT NOT NULL,
		from_output   TEXT NOT NULL DEFAULT 'main',
		to_input      TEXT NOT NULL DEFAULT 'main',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (workflow_id, id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_connection_edge ON connection
		(workflow_id, from_node_id, to_node_id, from_output, to_input)`,
	`CREATE TABLE IF NOT EXISTS step_checkpoints (
		execution_id UUID NOT NULL,
		name         TEXT NOT NULL,
		result       JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (execution_id, name)
	)`,
}

// EnsureSchema creates the engine's tables and indexes if they do not
// already exist. Intended for process start and integration tests;
// a production deployment with stricter migration needs can swap this
// for golang-migrate without touching the storage or step packages,
// since both only depend on the resulting table shapes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("db: ensure schema: %w", err)
		}
	}
	return nil
}
