package graph_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/state"
)

func TestNodeRunSuccessReturnsToolState(t *testing.T) {
	node := graph.Node{
		Name: "a",
		Tool: func(s state.WorkflowState) (state.WorkflowState, error) {
			return s.WithData("count", 1), nil
		},
	}

	result := node.Run(state.New("w", "r", nil, nil))

	assert.False(t, result.Failed)
	count, _ := result.State.GetData("count")
	assert.Equal(t, 1, count)
}

func TestNodeRunFailureAppendsErrorAndReportsFailed(t *testing.T) {
	boom := errors.New("boom")
	node := graph.Node{
		Name: "b",
		Tool: func(s state.WorkflowState) (state.WorkflowState, error) {
			return s, boom
		},
	}

	result := node.Run(state.New("w", "r", nil, nil))

	assert.True(t, result.Failed)
	assert.ErrorIs(t, result.Err, boom)
	assert.Len(t, result.State.Errors, 1)
	assert.Contains(t, result.State.Errors[0], "b")
}
