package graph

import (
	"errors"
	"fmt"

	"github.com/nullstream/graphd/pkg/state"
)

// Edge is a directed transition between two named nodes, optionally gated
// by a predicate. A nil predicate means the edge is unconditional.
type Edge struct {
	From      string
	To        string
	Condition string
	Predicate Predicate
}

// EdgeConditionError wraps a failure raised while evaluating an edge's
// predicate. Per spec it aborts the run.
type EdgeConditionError struct {
	From      string
	To        string
	Condition string
	Err       error
}

func (e *EdgeConditionError) Error() string {
	return fmt.Sprintf("edge %s->%s: condition %q failed: %v", e.From, e.To, e.Condition, e.Err)
}

func (e *EdgeConditionError) Unwrap() error {
	return e.Err
}

// IsEdgeConditionError reports whether err is an *EdgeConditionError.
func IsEdgeConditionError(err error) bool {
	return errors.As(err, new(*EdgeConditionError))
}

// EdgeManager indexes edges by source node for O(1) outgoing-edge lookup
// and resolves the next node to visit given the current node and state.
type EdgeManager struct {
	edges    []Edge
	outgoing map[string][]Edge
}

// NewEdgeManager returns an EdgeManager with no edges.
func NewEdgeManager() *EdgeManager {
	return &EdgeManager{outgoing: make(map[string][]Edge)}
}

// Add appends e to the manager, preserving insertion order within e.From's
// outgoing list. Insertion order is authoritative for tie-breaking (§4.3).
func (m *EdgeManager) Add(e Edge) {
	m.edges = append(m.edges, e)
	m.outgoing[e.From] = append(m.outgoing[e.From], e)
}

// Outgoing returns the ordered outgoing edges from node, or nil if it has
// none.
func (m *EdgeManager) Outgoing(node string) []Edge {
	return m.outgoing[node]
}

// All returns every edge added to the manager, in insertion order.
func (m *EdgeManager) All() []Edge {
	return m.edges
}

// HasOutgoing reports whether node has at least one outgoing edge.
func (m *EdgeManager) HasOutgoing(node string) bool {
	return len(m.outgoing[node]) > 0
}

// Next evaluates, in order, the outgoing edges from current and returns the
// name of the first whose predicate is true (or which has no predicate).
// An empty string return means traversal terminates at current.
func (m *EdgeManager) Next(current string, s state.WorkflowState) (string, error) {
	for _, edge := range m.outgoing[current] {
		if edge.Predicate == nil {
			return edge.To, nil
		}

		ok, err := edge.Predicate(s)
		if err != nil {
			return "", &EdgeConditionError{From: edge.From, To: edge.To, Condition: edge.Condition, Err: err}
		}

		if ok {
			return edge.To, nil
		}
	}

	return "", nil
}
