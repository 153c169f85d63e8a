package models

import "time"

// NodeStatus is the outcome recorded for a single node execution within a
// run's ExecutionLog.
type NodeStatus string

const (
	NodeStatusStarted   NodeStatus = "started"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusSkipped   NodeStatus = "skipped"
)

// ExecutionLog is one row of a run's node-by-node execution history,
// ordered by Timestamp and carrying a contiguous Iteration sequence.
type ExecutionLog struct {
	ID              string     `json:"id"`
	RunID           string     `json:"run_id"`
	NodeName        string     `json:"node_name"`
	Status          NodeStatus `json:"status"`
	Iteration       int        `json:"iteration"`
	ExecutionTimeMs *int64     `json:"execution_time_ms,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
}
