// Package eventbus implements the per-run Event Broker: an in-process
// publish/subscribe fan-out over watermill's gochannel transport, with one
// logical topic per run_id and a bounded per-subscriber buffer.
package eventbus

import "time"

// EventType names one of the seven wire event kinds a subscriber may
// receive (§4.7).
type EventType string

const (
	EventTypeStatusUpdate      EventType = "status_update"
	EventTypeNodeCompleted     EventType = "node_completed"
	EventTypeWorkflowCompleted EventType = "workflow_completed"
	EventTypeProgressUpdate    EventType = "progress_update"
	EventTypeLogEntry          EventType = "log_entry"
	EventTypeError             EventType = "error"
	EventTypePong              EventType = "pong"
)

// Event is satisfied by every concrete event struct below.
type Event interface {
	GetType() EventType
	GetRunID() string
}

// BaseEvent carries the fields every event shares.
type BaseEvent struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (b BaseEvent) GetType() EventType { return b.Type }
func (b BaseEvent) GetRunID() string   { return b.RunID }

// StatusUpdate reports the node the engine is about to execute.
type StatusUpdate struct {
	BaseEvent

	Status      string   `json:"status"`
	CurrentNode string   `json:"current_node,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
}

// NewStatusUpdate builds a StatusUpdate event for runID.
func NewStatusUpdate(runID, status, currentNode string) StatusUpdate {
	return StatusUpdate{
		BaseEvent:   BaseEvent{Type: EventTypeStatusUpdate, RunID: runID, Timestamp: time.Now().UTC()},
		Status:      status,
		CurrentNode: currentNode,
	}
}

// NodeCompleted reports a single node's outcome.
type NodeCompleted struct {
	BaseEvent

	NodeName   string `json:"node_name"`
	DurationMs int64  `json:"duration_ms"`
	Iteration  int    `json:"iteration"`
	NodeStatus string `json:"node_status"`
}

// NewNodeCompleted builds a NodeCompleted event for runID.
func NewNodeCompleted(runID, nodeName string, durationMs int64, iteration int, nodeStatus string) NodeCompleted {
	return NodeCompleted{
		BaseEvent:  BaseEvent{Type: EventTypeNodeCompleted, RunID: runID, Timestamp: time.Now().UTC()},
		NodeName:   nodeName,
		DurationMs: durationMs,
		Iteration:  iteration,
		NodeStatus: nodeStatus,
	}
}

// WorkflowCompleted is the terminal event for a run, successful or not.
type WorkflowCompleted struct {
	BaseEvent

	Status          string         `json:"status"`
	FinalState      map[string]any `json:"final_state,omitempty"`
	TotalDurationMs int64          `json:"total_duration_ms"`
	TotalIterations int            `json:"total_iterations"`
	ErrorMessage    *string        `json:"error_message,omitempty"`
}

// NewWorkflowCompleted builds the terminal event for runID.
func NewWorkflowCompleted(runID, status string, finalState map[string]any, totalDurationMs int64, totalIterations int, errorMessage *string) WorkflowCompleted {
	return WorkflowCompleted{
		BaseEvent:       BaseEvent{Type: EventTypeWorkflowCompleted, RunID: runID, Timestamp: time.Now().UTC()},
		Status:          status,
		FinalState:      finalState,
		TotalDurationMs: totalDurationMs,
		TotalIterations: totalIterations,
		ErrorMessage:    errorMessage,
	}
}

// ProgressUpdate reports coarse-grained run progress for UI consumption.
type ProgressUpdate struct {
	BaseEvent

	CurrentNode        string  `json:"current_node"`
	CompletedNodes     int     `json:"completed_nodes"`
	TotalNodes         int     `json:"total_nodes"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// NewProgressUpdate builds a ProgressUpdate event for runID. completedNodes
// is the count of nodes the engine has finished so far in this run.
func NewProgressUpdate(runID, currentNode string, completedNodes, totalNodes int, progressPercentage float64) ProgressUpdate {
	return ProgressUpdate{
		BaseEvent:          BaseEvent{Type: EventTypeProgressUpdate, RunID: runID, Timestamp: time.Now().UTC()},
		CurrentNode:        currentNode,
		CompletedNodes:     completedNodes,
		TotalNodes:         totalNodes,
		ProgressPercentage: progressPercentage,
	}
}

// LogEntry mirrors one ExecutionLog row as it is written.
type LogEntry struct {
	BaseEvent

	NodeName string  `json:"node_name"`
	Status   string  `json:"status"`
	Error    *string `json:"error,omitempty"`
}

// NewLogEntry builds a LogEntry event for runID.
func NewLogEntry(runID, nodeName, status string, errMessage *string) LogEntry {
	return LogEntry{
		BaseEvent: BaseEvent{Type: EventTypeLogEntry, RunID: runID, Timestamp: time.Now().UTC()},
		NodeName:  nodeName,
		Status:    status,
		Error:     errMessage,
	}
}

// ErrorEvent reports an out-of-band failure not otherwise captured by a
// NodeCompleted/WorkflowCompleted event.
type ErrorEvent struct {
	BaseEvent

	Message string `json:"message"`
	Node    string `json:"node,omitempty"`
}

// NewErrorEvent builds an ErrorEvent for runID.
func NewErrorEvent(runID, message, node string) ErrorEvent {
	return ErrorEvent{
		BaseEvent: BaseEvent{Type: EventTypeError, RunID: runID, Timestamp: time.Now().UTC()},
		Message:   message,
		Node:      node,
	}
}

// Pong is the heartbeat reply to a literal "ping" text frame.
type Pong struct {
	BaseEvent
}

// NewPong builds a Pong event for runID.
func NewPong(runID string) Pong {
	return Pong{BaseEvent: BaseEvent{Type: EventTypePong, RunID: runID, Timestamp: time.Now().UTC()}}
}
