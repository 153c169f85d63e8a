// Package web provides the HTTP and WebSocket surface of §6: graph CRUD,
// run lifecycle, and a per-run event stream.
package web

import (
	"time"

	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/models"
)

// CreateGraphRequest is the body of POST /graph/create.
type CreateGraphRequest struct {
	Name        string           `json:"name"         validate:"required,min=1"`
	Description string           `json:"description"`
	Nodes       []graph.NodeSpec `json:"nodes"        validate:"required,min=1,dive"`
	Edges       []graph.EdgeSpec `json:"edges"        validate:"dive"`
	EntryPoint  string           `json:"entry_point"  validate:"required"`
}

// StartRunRequest is the body of POST /graph/run.
type StartRunRequest struct {
	GraphName    string         `json:"graph_name"    validate:"required"`
	InitialState map[string]any `json:"initial_state"`
	TimeoutSec   *int           `json:"timeout,omitempty"`
}

// StartRunResponse is returned synchronously once a run has been accepted.
type StartRunResponse struct {
	RunID        string           `json:"run_id"`
	GraphID      string           `json:"graph_id"`
	Status       models.RunStatus `json:"status"`
	StartedAt    *time.Time       `json:"started_at"`
	InitialState map[string]any   `json:"initial_state"`
}

// RunStateResponse is the body of GET /graph/state/{run_id}.
type RunStateResponse struct {
	Run *models.Run             `json:"run"`
	Log []*models.ExecutionLog  `json:"execution_log"`
}

// StatsSummaryResponse is the body of GET /graph/stats/summary.
type StatsSummaryResponse struct {
	TotalGraphs       int     `json:"total_graphs"`
	ActiveGraphs      int     `json:"active_graphs"`
	TotalRuns         int     `json:"total_runs"`
	CompletedRuns     int     `json:"completed_runs"`
	FailedRuns        int     `json:"failed_runs"`
	AverageIterations float64 `json:"average_iterations"`
	AverageDurationMs float64 `json:"average_duration_ms"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}
