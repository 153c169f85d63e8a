package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullstream/graphd/pkg/state"
)

func TestNewZeroesIteration(t *testing.T) {
	s := state.New("wf-1", "run-1", nil, nil)

	assert.Equal(t, 0, s.Iteration)
	assert.False(t, s.HasErrors())
	assert.False(t, s.HasWarnings())
	assert.NotNil(t, s.Data)
	assert.NotNil(t, s.Config)
}

func TestWithDataDoesNotMutateOriginal(t *testing.T) {
	original := state.New("wf-1", "run-1", map[string]any{"x": 1}, nil)

	updated := original.WithData("x", 2)

	originalX, _ := original.GetData("x")
	updatedX, _ := updated.GetData("x")

	assert.Equal(t, 1, originalX)
	assert.Equal(t, 2, updatedX)
}

func TestMergeDataAddsAllKeys(t *testing.T) {
	original := state.New("wf-1", "run-1", map[string]any{"a": 1}, nil)

	merged := original.MergeData(map[string]any{"b": 2, "c": 3})

	a, _ := merged.GetData("a")
	b, _ := merged.GetData("b")
	c, _ := merged.GetData("c")

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 3, c)
}

func TestAddErrorAppends(t *testing.T) {
	s := state.New("wf-1", "run-1", nil, nil)

	s1 := s.AddError("boom")
	s2 := s1.AddError("again")

	assert.False(t, s.HasErrors())
	assert.Equal(t, []string{"boom"}, s1.Errors)
	assert.Equal(t, []string{"boom", "again"}, s2.Errors)
}

func TestWithIterationIsMonotonicByCaller(t *testing.T) {
	s := state.New("wf-1", "run-1", nil, nil)

	s1 := s.WithIteration(1)
	s2 := s1.WithIteration(2)

	assert.Equal(t, 0, s.Iteration)
	assert.Equal(t, 1, s1.Iteration)
	assert.Equal(t, 2, s2.Iteration)
}

func TestJSONRoundTrip(t *testing.T) {
	original := state.New("wf-1", "run-1", map[string]any{"count": float64(3)}, map[string]any{"retries": float64(2)})
	original = original.AddError("e1").AddWarning("w1").WithIteration(4)

	raw, err := original.ToJSON()
	require.NoError(t, err)

	restored, err := state.FromJSON(raw)
	require.NoError(t, err)

	assert.Equal(t, original.WorkflowID, restored.WorkflowID)
	assert.Equal(t, original.RunID, restored.RunID)
	assert.Equal(t, original.Iteration, restored.Iteration)
	assert.Equal(t, original.Errors, restored.Errors)
	assert.Equal(t, original.Warnings, restored.Warnings)
	assert.Equal(t, original.Data, restored.Data)
	assert.Equal(t, original.Config, restored.Config)
}

func TestToMapProducesPlainMap(t *testing.T) {
	s := state.New("wf-1", "run-1", map[string]any{"k": "v"}, nil)

	m, err := s.ToMap()
	require.NoError(t, err)

	assert.Equal(t, "wf-1", m["workflow_id"])
	assert.Equal(t, "run-1", m["run_id"])

	data, ok := m["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v", data["k"])
}
