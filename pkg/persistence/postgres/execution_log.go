package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nullstream/graphd/pkg/models"
	"github.com/nullstream/graphd/pkg/persistence"
)

func (r *Repository) AppendExecutionLog(ctx context.Context, entry *models.ExecutionLog) error {
	id, err := uuid.NewV7()
	if err != nil {
		return persistence.NewRunError("AppendExecutionLog", entry.RunID, err)
	}

	query := `
		INSERT INTO execution_logs (id, run_id, node_name, status, iteration, execution_time_ms, timestamp, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		id.String(), entry.RunID, entry.NodeName, entry.Status, entry.Iteration,
		entry.ExecutionTimeMs, entry.Timestamp, entry.ErrorMessage,
	)
	if err != nil {
		return persistence.NewRunError("AppendExecutionLog", entry.RunID, fmt.Errorf("failed to insert execution log: %w", err))
	}

	return nil
}

func (r *Repository) ListExecutionLogByRun(ctx context.Context, runID string) ([]*models.ExecutionLog, error) {
	query := `
		SELECT id, run_id, node_name, status, iteration, execution_time_ms, timestamp, error_message
		FROM execution_logs
		WHERE run_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, persistence.NewRunError("ListExecutionLogByRun", runID, fmt.Errorf("failed to query execution logs: %w", err))
	}
	defer rows.Close()

	logs := make([]*models.ExecutionLog, 0)

	for rows.Next() {
		var entry models.ExecutionLog

		err := rows.Scan(&entry.ID, &entry.RunID, &entry.NodeName, &entry.Status, &entry.Iteration,
			&entry.ExecutionTimeMs, &entry.Timestamp, &entry.ErrorMessage)
		if err != nil {
			return nil, persistence.NewRunError("ListExecutionLogByRun", runID, fmt.Errorf("failed to scan execution log: %w", err))
		}

		logs = append(logs, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewRunError("ListExecutionLogByRun", runID, fmt.Errorf("error iterating execution logs: %w", err))
	}

	return logs, nil
}
