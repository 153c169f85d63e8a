package graph_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/state"
)

func noopTool(s state.WorkflowState) (state.WorkflowState, error) {
	return s, nil
}

func newToolRegistry(t *testing.T, names ...string) *graph.ToolRegistry {
	t.Helper()

	tools := graph.NewToolRegistry()
	for _, name := range names {
		require.NoError(t, tools.Register(name, noopTool, graph.ToolMetadata{}))
	}

	return tools
}

func TestValidateRejectsMissingEntryPoint(t *testing.T) {
	tools := newToolRegistry(t, "noop")
	g, err := graph.Build("g", "", []graph.NodeSpec{{Name: "a", Tool: "noop"}}, nil, "", tools, graph.NewPredicateRegistry())
	require.NoError(t, err)

	err = g.Validate()
	require.Error(t, err)
	assert.True(t, graph.IsGraphValidationError(err))
}

func TestValidateRejectsUnknownEdgeEndpoint(t *testing.T) {
	tools := newToolRegistry(t, "noop")
	g, err := graph.Build(
		"g", "",
		[]graph.NodeSpec{{Name: "a", Tool: "noop"}},
		[]graph.EdgeSpec{{From: "a", To: "ghost"}},
		"a", tools, graph.NewPredicateRegistry(),
	)
	require.NoError(t, err)

	err = g.Validate()
	require.Error(t, err)
	assert.True(t, graph.IsGraphValidationError(err))
}

func TestValidateRejectsUnconditionalSelfLoop(t *testing.T) {
	tools := newToolRegistry(t, "noop")
	g, err := graph.Build(
		"g", "",
		[]graph.NodeSpec{{Name: "a", Tool: "noop"}},
		[]graph.EdgeSpec{{From: "a", To: "a"}},
		"a", tools, graph.NewPredicateRegistry(),
	)
	require.NoError(t, err)

	err = g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self-loop")
}

func TestValidateAllowsConditionalSelfLoop(t *testing.T) {
	tools := newToolRegistry(t, "noop")
	predicates := graph.NewPredicateRegistry()

	g, err := graph.Build(
		"g", "",
		[]graph.NodeSpec{{Name: "a", Tool: "noop"}},
		[]graph.EdgeSpec{{From: "a", To: "a", Condition: "has_errors"}},
		"a", tools, predicates,
	)
	require.NoError(t, err)

	assert.NoError(t, g.Validate())
}

func TestValidateRejectsUnreachableNode(t *testing.T) {
	tools := newToolRegistry(t, "noop")
	g, err := graph.Build(
		"g", "",
		[]graph.NodeSpec{{Name: "a", Tool: "noop"}, {Name: "orphan", Tool: "noop"}},
		nil,
		"a", tools, graph.NewPredicateRegistry(),
	)
	require.NoError(t, err)

	err = g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orphan")
}

func TestBuildFailsOnUnknownTool(t *testing.T) {
	tools := newToolRegistry(t)
	_, err := graph.Build(
		"g", "",
		[]graph.NodeSpec{{Name: "a", Tool: "missing"}},
		nil, "a", tools, graph.NewPredicateRegistry(),
	)
	require.Error(t, err)
	assert.True(t, errors.As(err, new(*graph.ToolNotFoundError)))
}

func TestFindCyclesDetectsButDoesNotFailValidation(t *testing.T) {
	tools := newToolRegistry(t, "noop")
	predicates := graph.NewPredicateRegistry()

	g, err := graph.Build(
		"g", "",
		[]graph.NodeSpec{{Name: "a", Tool: "noop"}, {Name: "b", Tool: "noop"}},
		[]graph.EdgeSpec{
			{From: "a", To: "b"},
			{From: "b", To: "a", Condition: "has_no_errors"},
		},
		"a", tools, predicates,
	)
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	cycles := g.FindCycles()
	assert.NotEmpty(t, cycles)
}

func TestEntryNodeWithTwoUnconditionalEdgesSelectsFirstInserted(t *testing.T) {
	tools := newToolRegistry(t, "noop")
	predicates := graph.NewPredicateRegistry()

	g, err := graph.Build(
		"g", "",
		[]graph.NodeSpec{{Name: "a", Tool: "noop"}, {Name: "b", Tool: "noop"}, {Name: "c", Tool: "noop"}},
		[]graph.EdgeSpec{
			{From: "a", To: "b"},
			{From: "a", To: "c"},
		},
		"a", tools, predicates,
	)
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	next, err := g.Edges.Next("a", state.New("w", "r", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "b", next)
}

func TestStatsReportsEndNodesAndCycles(t *testing.T) {
	tools := newToolRegistry(t, "noop")

	g, err := graph.Build(
		"g", "",
		[]graph.NodeSpec{{Name: "a", Tool: "noop"}, {Name: "b", Tool: "noop"}},
		[]graph.EdgeSpec{{From: "a", To: "b"}},
		"a", tools, graph.NewPredicateRegistry(),
	)
	require.NoError(t, err)

	stats := g.Stats()
	assert.Equal(t, 2, stats.NodeCount)
	assert.Equal(t, 1, stats.EdgeCount)
	assert.False(t, stats.HasCycles)
	assert.Equal(t, []string{"b"}, stats.EndNodes)
}
