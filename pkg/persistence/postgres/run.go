package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nullstream/graphd/pkg/models"
	"github.com/nullstream/graphd/pkg/persistence"
)

func marshalState(s map[string]any) ([]byte, error) {
	if s == nil {
		return nil, nil
	}

	return json.Marshal(s)
}

func unmarshalState(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var s map[string]any
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}

	return s, nil
}

func (r *Repository) CreateRun(ctx context.Context, graphID string, initialState map[string]any) (*models.Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, persistence.NewRunError("CreateRun", "", err)
	}

	initial, err := marshalState(initialState)
	if err != nil {
		return nil, persistence.NewRunError("CreateRun", "", fmt.Errorf("failed to marshal initial state: %w", err))
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO runs (id, run_id, graph_id, status, initial_state, created_at)
		VALUES ($1, $1, $2, $3, $4, $5)
	`

	_, err = r.db.ExecContext(ctx, query, id.String(), graphID, models.RunStatusPending, initial, now)
	if err != nil {
		return nil, persistence.NewRunError("CreateRun", id.String(), fmt.Errorf("failed to insert run: %w", err))
	}

	return &models.Run{
		ID:           id.String(),
		RunID:        id.String(),
		GraphID:      graphID,
		Status:       models.RunStatusPending,
		InitialState: initialState,
		CreatedAt:    now,
	}, nil
}

func (r *Repository) RunByRunID(ctx context.Context, runID string) (*models.Run, []*models.ExecutionLog, error) {
	query := `
		SELECT id, run_id, graph_id, status, initial_state, current_state, final_state,
		       started_at, completed_at, total_iterations, total_execution_time_ms, error_message, created_at
		FROM runs WHERE run_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, runID)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, persistence.NewRunError("RunByRunID", runID, persistence.ErrRunNotFound)
		}

		return nil, nil, persistence.NewRunError("RunByRunID", runID, err)
	}

	logs, err := r.ListExecutionLogByRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}

	return run, logs, nil
}

func scanRun(row *sql.Row) (*models.Run, error) {
	var run models.Run

	var initial, current, final []byte

	err := row.Scan(
		&run.ID, &run.RunID, &run.GraphID, &run.Status, &initial, &current, &final,
		&run.StartedAt, &run.CompletedAt, &run.TotalIterations, &run.TotalExecutionTimeMs, &run.ErrorMessage, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if run.InitialState, err = unmarshalState(initial); err != nil {
		return nil, fmt.Errorf("failed to unmarshal initial_state: %w", err)
	}

	if run.CurrentState, err = unmarshalState(current); err != nil {
		return nil, fmt.Errorf("failed to unmarshal current_state: %w", err)
	}

	if run.FinalState, err = unmarshalState(final); err != nil {
		return nil, fmt.Errorf("failed to unmarshal final_state: %w", err)
	}

	return &run, nil
}

func (r *Repository) ListRuns(ctx context.Context, filter persistence.RunFilter) ([]*models.Run, error) {
	query := `
		SELECT id, run_id, graph_id, status, initial_state, current_state, final_state,
		       started_at, completed_at, total_iterations, total_execution_time_ms, error_message, created_at
		FROM runs
		WHERE ($1 = '' OR graph_id = $1::uuid)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		OFFSET $3
	`

	args := []any{filter.GraphID, filter.Status, filter.Skip}

	if filter.Limit > 0 {
		query += " LIMIT $4"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewRunError("ListRuns", "", fmt.Errorf("failed to query runs: %w", err))
	}
	defer rows.Close()

	runs := make([]*models.Run, 0)

	for rows.Next() {
		var run models.Run

		var initial, current, final []byte

		err := rows.Scan(
			&run.ID, &run.RunID, &run.GraphID, &run.Status, &initial, &current, &final,
			&run.StartedAt, &run.CompletedAt, &run.TotalIterations, &run.TotalExecutionTimeMs, &run.ErrorMessage, &run.CreatedAt,
		)
		if err != nil {
			return nil, persistence.NewRunError("ListRuns", "", fmt.Errorf("failed to scan run: %w", err))
		}

		if run.InitialState, err = unmarshalState(initial); err != nil {
			return nil, persistence.NewRunError("ListRuns", run.RunID, err)
		}

		if run.CurrentState, err = unmarshalState(current); err != nil {
			return nil, persistence.NewRunError("ListRuns", run.RunID, err)
		}

		if run.FinalState, err = unmarshalState(final); err != nil {
			return nil, persistence.NewRunError("ListRuns", run.RunID, err)
		}

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewRunError("ListRuns", "", fmt.Errorf("error iterating runs: %w", err))
	}

	return runs, nil
}

func (r *Repository) UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus, startedAt, completedAt *time.Time, errorMessage *string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE runs SET
			status = $2,
			started_at = COALESCE($3, started_at),
			completed_at = COALESCE($4, completed_at),
			error_message = COALESCE($5, error_message)
		WHERE run_id = $1
	`, runID, status, startedAt, completedAt, errorMessage)
	if err != nil {
		return persistence.NewRunError("UpdateRunStatus", runID, fmt.Errorf("failed to update run status: %w", err))
	}

	return checkAffected(result, "UpdateRunStatus", runID)
}

func (r *Repository) UpdateRunFinalState(ctx context.Context, runID string, finalState map[string]any, totalIterations int, totalExecutionTimeMs int64) error {
	final, err := marshalState(finalState)
	if err != nil {
		return persistence.NewRunError("UpdateRunFinalState", runID, fmt.Errorf("failed to marshal final state: %w", err))
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE runs SET final_state = $2, total_iterations = $3, total_execution_time_ms = $4
		WHERE run_id = $1
	`, runID, final, totalIterations, totalExecutionTimeMs)
	if err != nil {
		return persistence.NewRunError("UpdateRunFinalState", runID, fmt.Errorf("failed to update final state: %w", err))
	}

	return checkAffected(result, "UpdateRunFinalState", runID)
}

func (r *Repository) UpdateRunCurrentState(ctx context.Context, runID string, currentState map[string]any) error {
	current, err := marshalState(currentState)
	if err != nil {
		return persistence.NewRunError("UpdateRunCurrentState", runID, fmt.Errorf("failed to marshal current state: %w", err))
	}

	result, err := r.db.ExecContext(ctx, "UPDATE runs SET current_state = $2 WHERE run_id = $1", runID, current)
	if err != nil {
		return persistence.NewRunError("UpdateRunCurrentState", runID, fmt.Errorf("failed to update current state: %w", err))
	}

	return checkAffected(result, "UpdateRunCurrentState", runID)
}

func checkAffected(result sql.Result, op, runID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewRunError(op, runID, err)
	}

	if affected == 0 {
		return persistence.NewRunError(op, runID, persistence.ErrRunNotFound)
	}

	return nil
}
