// Package engine drives a single run of a validated graph to completion,
// publishing lifecycle events and logging hooks along the way.
package engine

import (
	"errors"
	"fmt"
)

// Sentinel error kinds a run can terminate with, distinguished from the
// wrapping error structs below so callers can branch with errors.Is.
var (
	errMaxIterationsExceeded = errors.New("max iterations exceeded")
	errTimeout               = errors.New("run timed out")
	errCancelled             = errors.New("run cancelled")
)

// NodeExecutionError wraps the failure a node's tool raised while
// executing. It always carries the node name and iteration at which the
// failure occurred.
type NodeExecutionError struct {
	Node      string
	Iteration int
	Err       error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q failed at iteration %d: %v", e.Node, e.Iteration, e.Err)
}

func (e *NodeExecutionError) Unwrap() error { return e.Err }

// IsNodeExecutionError reports whether err is a *NodeExecutionError.
func IsNodeExecutionError(err error) bool {
	return errors.As(err, new(*NodeExecutionError))
}

// MaxIterationsExceededError reports that a run hit options.MaxIterations
// before the graph reached a terminal node.
type MaxIterationsExceededError struct {
	MaxIterations int
}

func (e *MaxIterationsExceededError) Error() string {
	return fmt.Sprintf("exceeded max iterations (%d)", e.MaxIterations)
}

func (e *MaxIterationsExceededError) Unwrap() error { return errMaxIterationsExceeded }

// IsMaxIterationsExceeded reports whether err is a *MaxIterationsExceededError.
func IsMaxIterationsExceeded(err error) bool {
	return errors.As(err, new(*MaxIterationsExceededError))
}

// TimeoutError reports that a run's wall-clock budget elapsed.
type TimeoutError struct {
	Elapsed string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("run timed out after %s", e.Elapsed)
}

func (e *TimeoutError) Unwrap() error { return errTimeout }

// IsTimeout reports whether err is a *TimeoutError.
func IsTimeout(err error) bool {
	return errors.As(err, new(*TimeoutError))
}

// errUnknownNode reports that a graph's edges point at a node absent from
// its node table. Validate rejects this before a run starts; Execute
// treats it as a defensive node-execution failure rather than a panic.
func errUnknownNode(name string) error {
	return fmt.Errorf("node %q referenced by an edge but not present in the graph", name)
}

// CancelledError reports that a run's cancellation flag was observed at a
// loop-head check.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "run cancelled" }

func (e *CancelledError) Unwrap() error { return errCancelled }

// IsCancelled reports whether err is a *CancelledError.
func IsCancelled(err error) bool {
	return errors.As(err, new(*CancelledError))
}
