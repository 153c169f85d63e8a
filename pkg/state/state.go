// Package state defines the immutable-update value that flows between nodes
// during graph execution.
package state

import (
	"encoding/json"
	"time"
)

// WorkflowState is the value carried from node to node during a run. Every
// node returns a new WorkflowState rather than mutating the one it received.
type WorkflowState struct {
	WorkflowID string         `json:"workflow_id"`
	RunID      string         `json:"run_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Iteration  int            `json:"iteration"`
	Data       map[string]any `json:"data"`
	Errors     []string       `json:"errors"`
	Warnings   []string       `json:"warnings"`
	Config     map[string]any `json:"config"`
}

// New creates the initial state for a run.
func New(workflowID, runID string, data, config map[string]any) WorkflowState {
	if data == nil {
		data = make(map[string]any)
	}

	if config == nil {
		config = make(map[string]any)
	}

	return WorkflowState{
		WorkflowID: workflowID,
		RunID:      runID,
		Timestamp:  time.Now().UTC(),
		Iteration:  0,
		Data:       data,
		Errors:     []string{},
		Warnings:   []string{},
		Config:     config,
	}
}

// clone returns a deep-enough copy of s so that callers can mutate the
// returned value's Data/Errors/Warnings without affecting s.
func (s WorkflowState) clone() WorkflowState {
	next := s

	next.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		next.Data[k] = v
	}

	next.Errors = append([]string{}, s.Errors...)
	next.Warnings = append([]string{}, s.Warnings...)

	next.Config = make(map[string]any, len(s.Config))
	for k, v := range s.Config {
		next.Config[k] = v
	}

	return next
}

// WithData returns a new state with key set to value in Data.
func (s WorkflowState) WithData(key string, value any) WorkflowState {
	next := s.clone()
	next.Data[key] = value

	return next
}

// MergeData returns a new state with every key in updates set in Data.
func (s WorkflowState) MergeData(updates map[string]any) WorkflowState {
	next := s.clone()
	for k, v := range updates {
		next.Data[k] = v
	}

	return next
}

// GetData returns the value stored under key and whether it was present.
func (s WorkflowState) GetData(key string) (any, bool) {
	v, ok := s.Data[key]

	return v, ok
}

// AddError returns a new state with message appended to Errors.
func (s WorkflowState) AddError(message string) WorkflowState {
	next := s.clone()
	next.Errors = append(next.Errors, message)

	return next
}

// AddWarning returns a new state with message appended to Warnings.
func (s WorkflowState) AddWarning(message string) WorkflowState {
	next := s.clone()
	next.Warnings = append(next.Warnings, message)

	return next
}

// HasErrors reports whether the state has accumulated any errors.
func (s WorkflowState) HasErrors() bool {
	return len(s.Errors) > 0
}

// HasWarnings reports whether the state has accumulated any warnings.
func (s WorkflowState) HasWarnings() bool {
	return len(s.Warnings) > 0
}

// WithIteration returns a new state with Iteration set.
func (s WorkflowState) WithIteration(iteration int) WorkflowState {
	next := s.clone()
	next.Iteration = iteration

	return next
}

// ToJSON serializes the state to a JSON object.
func (s WorkflowState) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// FromJSON decodes a WorkflowState from a JSON object produced by ToJSON.
func FromJSON(data []byte) (WorkflowState, error) {
	var s WorkflowState

	if err := json.Unmarshal(data, &s); err != nil {
		return WorkflowState{}, err
	}

	if s.Data == nil {
		s.Data = make(map[string]any)
	}

	if s.Config == nil {
		s.Config = make(map[string]any)
	}

	return s, nil
}

// ToMap renders the state as a plain map, suitable for storing in a JSON
// column alongside a Run row.
func (s WorkflowState) ToMap() (map[string]any, error) {
	raw, err := s.ToJSON()
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	return m, nil
}
