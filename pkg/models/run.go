package models

import "time"

// RunStatus represents the lifecycle state of a single graph execution.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is the persisted record of a single execution of a GraphDefinition.
type Run struct {
	ID                   string         `json:"id"`
	RunID                string         `json:"run_id"`
	GraphID              string         `json:"graph_id"`
	Status               RunStatus      `json:"status"`
	InitialState         map[string]any `json:"initial_state"`
	CurrentState         map[string]any `json:"current_state,omitempty"`
	FinalState           map[string]any `json:"final_state,omitempty"`
	StartedAt            *time.Time     `json:"started_at,omitempty"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`
	TotalIterations      *int           `json:"total_iterations,omitempty"`
	TotalExecutionTimeMs *int64         `json:"total_execution_time_ms,omitempty"`
	ErrorMessage         *string        `json:"error_message,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}

// IsTerminal reports whether r has reached a state the coordinator will
// never transition out of.
func (r *Run) IsTerminal() bool {
	switch r.Status {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}
