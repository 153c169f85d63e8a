package graph_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/state"
)

func TestEdgeManagerNextReturnsEmptyWhenNoEdgeMatches(t *testing.T) {
	m := graph.NewEdgeManager()
	m.Add(graph.Edge{From: "a", To: "b", Predicate: func(state.WorkflowState) (bool, error) { return false, nil }})

	next, err := m.Next("a", state.New("w", "r", nil, nil))
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestEdgeManagerNextReturnsEmptyForTerminalNode(t *testing.T) {
	m := graph.NewEdgeManager()

	next, err := m.Next("lonely", state.New("w", "r", nil, nil))
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestEdgeManagerNextSurfacesPredicateFailureAsEdgeConditionError(t *testing.T) {
	boom := errors.New("boom")
	m := graph.NewEdgeManager()
	m.Add(graph.Edge{From: "a", To: "b", Condition: "flaky", Predicate: func(state.WorkflowState) (bool, error) { return false, boom }})

	_, err := m.Next("a", state.New("w", "r", nil, nil))
	require.Error(t, err)
	assert.True(t, graph.IsEdgeConditionError(err))
	assert.ErrorIs(t, err, boom)
}

func TestIsEdgeConditionErrorMatchesThroughWrapping(t *testing.T) {
	boom := errors.New("boom")
	m := graph.NewEdgeManager()
	m.Add(graph.Edge{From: "a", To: "b", Condition: "flaky", Predicate: func(state.WorkflowState) (bool, error) { return false, boom }})

	_, err := m.Next("a", state.New("w", "r", nil, nil))
	require.Error(t, err)

	wrapped := fmt.Errorf("failed to advance run: %w", err)
	assert.True(t, graph.IsEdgeConditionError(wrapped))
}

func TestEdgeManagerHasOutgoing(t *testing.T) {
	m := graph.NewEdgeManager()
	assert.False(t, m.HasOutgoing("a"))

	m.Add(graph.Edge{From: "a", To: "b"})
	assert.True(t, m.HasOutgoing("a"))
}
