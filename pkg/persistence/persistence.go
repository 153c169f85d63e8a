package persistence

import (
	"context"
	"time"

	"github.com/nullstream/graphd/pkg/models"
)

// RunFilter narrows a Runs listing (§4.8); a zero-value field means
// unfiltered on that dimension.
type RunFilter struct {
	GraphID string
	Status  models.RunStatus
	Skip    int
	Limit   int
}

// Repository is the storage-agnostic contract the coordinator, engine, and
// HTTP layer depend on (§4.8). Every method is potentially suspending and
// implementations MUST make retries of a persistence operation (never of a
// node) safe: a repeated Append, CreateRun, or UpdateStatus call must not
// corrupt the row.
type Repository interface {
	// CreateGraph persists def and returns its assigned id. Returns
	// ErrGraphNameTaken if an active graph already has def.Name.
	CreateGraph(ctx context.Context, def *models.GraphDefinition) (string, error)
	GraphByID(ctx context.Context, id string) (*models.GraphDefinition, error)
	GraphByName(ctx context.Context, name string) (*models.GraphDefinition, error)
	ListGraphs(ctx context.Context, skip, limit int, activeOnly bool) ([]*models.GraphDefinition, error)
	SoftDeleteGraph(ctx context.Context, id string) error

	// CreateRun persists a pending run for graphID and returns the Run row
	// with its allocated run_id.
	CreateRun(ctx context.Context, graphID string, initialState map[string]any) (*models.Run, error)
	// RunByRunID returns the run, eager-loading its ExecutionLog rows.
	RunByRunID(ctx context.Context, runID string) (*models.Run, []*models.ExecutionLog, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*models.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus, startedAt, completedAt *time.Time, errorMessage *string) error
	UpdateRunFinalState(ctx context.Context, runID string, finalState map[string]any, totalIterations int, totalExecutionTimeMs int64) error
	UpdateRunCurrentState(ctx context.Context, runID string, currentState map[string]any) error

	AppendExecutionLog(ctx context.Context, entry *models.ExecutionLog) error
	ListExecutionLogByRun(ctx context.Context, runID string) ([]*models.ExecutionLog, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
