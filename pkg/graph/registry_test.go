package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/state"
)

func TestToolRegistryRegisterIsIdempotentPerNameButRejectsDuplicates(t *testing.T) {
	r := graph.NewToolRegistry()

	require.NoError(t, r.Register("a", noopTool, graph.ToolMetadata{}))

	err := r.Register("a", noopTool, graph.ToolMetadata{})
	require.Error(t, err)
	assert.True(t, graph.IsToolAlreadyRegistered(err))
}

func TestToolRegistryLookupUnknownFails(t *testing.T) {
	r := graph.NewToolRegistry()

	_, _, err := r.Lookup("ghost")
	require.Error(t, err)
	assert.True(t, graph.IsToolNotFound(err))
}

func TestPredicateRegistryResolveUnconditionalWhenEmpty(t *testing.T) {
	r := graph.NewPredicateRegistry()

	predicate, hasCondition, err := r.Resolve("")
	require.NoError(t, err)
	assert.False(t, hasCondition)
	assert.Nil(t, predicate)
}

func TestPredicateRegistryResolveParameterizedComparison(t *testing.T) {
	r := graph.NewPredicateRegistry()

	predicate, hasCondition, err := r.Resolve("data_greater_than:value:5")
	require.NoError(t, err)
	require.True(t, hasCondition)

	high, err := predicate(state.New("w", "r", map[string]any{"value": 10.0}, nil))
	require.NoError(t, err)
	assert.True(t, high)

	low, err := predicate(state.New("w", "r", map[string]any{"value": 1.0}, nil))
	require.NoError(t, err)
	assert.False(t, low)
}

func TestPredicateRegistryResolveUnknownPredicateFails(t *testing.T) {
	r := graph.NewPredicateRegistry()

	_, _, err := r.Resolve("not_a_real_predicate")
	require.Error(t, err)
}
