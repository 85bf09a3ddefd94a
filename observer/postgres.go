package observer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dcshock/servicepipe/pipeline"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Schema creates the pipeline_run and pipeline_run_stage tables used by
// PostgresObserver.
//
//go:embed schema.sql
var Schema string

// Execer is the subset of *pgxpool.Pool, *pgx.Conn and pgx.Tx used by
// PostgresObserver.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Migrate applies Schema. Safe to run repeatedly.
func Migrate(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const (
	upsertRunSQL = `INSERT INTO pipeline_run (run_id, name, status, input, started_at)
VALUES ($1, $2, 'running', $3, now())
ON CONFLICT (run_id) DO UPDATE
SET name = EXCLUDED.name, status = 'running', input = EXCLUDED.input,
    output = NULL, error = NULL, started_at = now(), finished_at = NULL`

	completeRunSQL = `UPDATE pipeline_run
SET status = $2, output = $3, error = $4, finished_at = now()
WHERE run_id = $1`

	upsertStageSQL = `INSERT INTO pipeline_run_stage (run_id, stage_index, service, status, input, started_at)
VALUES ($1, $2, $3, 'running', $4, now())
ON CONFLICT (run_id, stage_index) DO UPDATE
SET service = EXCLUDED.service, status = 'running', input = EXCLUDED.input,
    output = NULL, error = NULL, duration_ms = NULL, started_at = now(), finished_at = NULL`

	completeStageSQL = `UPDATE pipeline_run_stage
SET status = $3, output = $4, error = $5, duration_ms = $6, finished_at = now()
WHERE run_id = $1 AND stage_index = $2`
)

// PostgresObserver persists each run and its stages to Postgres
// (pipeline_run, pipeline_run_stage) for monitoring. Inputs and outputs are
// stored as JSON.
type PostgresObserver struct {
	db Execer
}

// NewPostgresObserver returns an Observer that writes through db (e.g. a
// *pgxpool.Pool).
func NewPostgresObserver(db Execer) *PostgresObserver {
	return &PostgresObserver{db: db}
}

// BeforeRun implements pipeline.Observer. Upserts a pipeline_run row with status 'running'.
func (o *PostgresObserver) BeforeRun(ctx context.Context, runID, name string, input any) error {
	inputJSON, err := marshalOptional(input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}
	if _, err := o.db.Exec(ctx, upsertRunSQL, runID, name, inputJSON); err != nil {
		return fmt.Errorf("insert pipeline_run %s: %w", runID, err)
	}
	return nil
}

// AfterRun implements pipeline.Observer. Records the final status, output and error.
func (o *PostgresObserver) AfterRun(ctx context.Context, runID string, output any, err error) error {
	status := pipeline.StatusSucceeded
	if err != nil {
		status = pipeline.StatusFailed
	}
	outputJSON, _ := marshalOptional(output)
	if _, execErr := o.db.Exec(ctx, completeRunSQL, runID, status.String(), outputJSON, errorText(err)); execErr != nil {
		return fmt.Errorf("update pipeline_run %s: %w", runID, execErr)
	}
	return nil
}

// BeforeStage implements pipeline.Observer. Upserts a pipeline_run_stage row with status 'running'.
func (o *PostgresObserver) BeforeStage(ctx context.Context, runID string, stage int, service string, input any) error {
	inputJSON, err := marshalOptional(input)
	if err != nil {
		return fmt.Errorf("marshal stage input: %w", err)
	}
	if _, err := o.db.Exec(ctx, upsertStageSQL, runID, int32(stage), service, inputJSON); err != nil {
		return fmt.Errorf("insert pipeline_run_stage %s/%d: %w", runID, stage, err)
	}
	return nil
}

// AfterStage implements pipeline.Observer. Records output, status, error and duration.
func (o *PostgresObserver) AfterStage(ctx context.Context, runID string, stage int, service string, input, output any, stageErr error, d time.Duration) error {
	status := pipeline.StatusSucceeded
	if stageErr != nil {
		status = pipeline.StatusFailed
	}
	outputJSON, _ := marshalOptional(output)
	durationMs := pgtype.Int8{Int64: d.Milliseconds(), Valid: true}
	_, err := o.db.Exec(ctx, completeStageSQL, runID, int32(stage), status.String(), outputJSON, errorText(stageErr), durationMs)
	if err != nil {
		return fmt.Errorf("update pipeline_run_stage %s/%d: %w", runID, stage, err)
	}
	return nil
}

func errorText(err error) pgtype.Text {
	if err == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: err.Error(), Valid: true}
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

var _ pipeline.Observer = (*PostgresObserver)(nil)
