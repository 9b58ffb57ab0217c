package step

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB abstracts the database operations pgstep needs. Satisfied by
// *pgxpool.Pool in production and pgxmock in tests, mirroring the
// services/storage DB interface convention.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
}

// Postgres checkpoints step results in the step_checkpoints table,
// keyed by (execution_id, name), giving step.Run semantics that
// survive a process restart rather than just surviving one in-memory
// run. A crash between thunk returning and the INSERT committing can
// still cause thunk to re-run once; the ON CONFLICT DO NOTHING plus
// re-SELECT below makes the checkpointed value the one every caller
// converges on regardless of which attempt wins the race.
type Postgres struct {
	DB          DB
	ExecutionID uuid.UUID
}

// NewPostgres returns a Step that checkpoints against db under
// executionID. executionID should be stable across retries of the
// same workflow execution (e.g. the job transport's delivery id).
func NewPostgres(db DB, executionID uuid.UUID) *Postgres {
	return &Postgres{DB: db, ExecutionID: executionID}
}

func (s *Postgres) Run(ctx context.Context, name string, thunk func(ctx context.Context) (any, error)) (any, error) {
	if v, ok, err := s.lookup(ctx, name); err != nil {
		return nil, err
	} else if ok {
		return v, nil
	}

	result, err := thunk(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("step %q: marshal result: %w", name, err)
	}

	_, err = s.DB.Exec(ctx, `
		INSERT INTO step_checkpoints (execution_id, name, result)
		VALUES ($1, $2, $3)
		ON CONFLICT (execution_id, name) DO NOTHING`,
		s.ExecutionID, name, payload)
	if err != nil {
		return nil, fmt.Errorf("step %q: checkpoint: %w", name, err)
	}

	// Re-read rather than trust `result`: if a concurrent attempt at
	// the same step lost the race, the row it inserted is the one
	// every future Run call must agree with.
	v, ok, err := s.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("step %q: checkpoint vanished after insert", name)
	}
	return v, nil
}

func (s *Postgres) lookup(ctx context.Context, name string) (any, bool, error) {
	var payload []byte
	err := s.DB.QueryRow(ctx, `
		SELECT result FROM step_checkpoints
		WHERE execution_id = $1 AND name = $2`,
		s.ExecutionID, name).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("step %q: lookup: %w", name, err)
	}

	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, false, fmt.Errorf("step %q: unmarshal checkpoint: %w", name, err)
	}
	return v, true, nil
}
