package graph

import (
	"fmt"
	"time"

	"github.com/nullstream/graphd/pkg/state"
)

// NodeMetadata carries the optional human-facing fields a graph definition
// may attach to a node.
type NodeMetadata struct {
	Description string
	Version     string
	Author      string
}

// Node binds a name to a tool. It is built once per run from a graph
// definition; it is never persisted on its own.
type Node struct {
	Name     string
	ToolName string
	Tool     Tool
	Metadata NodeMetadata
}

// Result carries the outcome of a single Node.Run call: the state the tool
// produced (or the input state with an error appended, on failure), whether
// the tool itself failed, and how long it took.
type Result struct {
	State         state.WorkflowState
	Failed        bool
	Err           error
	ExecutionTime time.Duration
}

// Run invokes the node's tool against s, converting a tool failure into an
// error entry on the returned state rather than letting it escape. The
// caller (the engine) decides whether a failed Result terminates the run.
func (n Node) Run(s state.WorkflowState) Result {
	start := time.Now()

	nextState, err := n.Tool(s)

	elapsed := time.Since(start)

	if err != nil {
		message := fmt.Sprintf("node %q failed: %v", n.Name, err)

		return Result{
			State:         s.AddError(message),
			Failed:        true,
			Err:           err,
			ExecutionTime: elapsed,
		}
	}

	return Result{
		State:         nextState,
		Failed:        false,
		ExecutionTime: elapsed,
	}
}
