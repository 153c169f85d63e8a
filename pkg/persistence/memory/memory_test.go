package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/models"
	"github.com/nullstream/graphd/pkg/persistence"
	"github.com/nullstream/graphd/pkg/persistence/memory"
)

func sampleGraph(name string) *models.GraphDefinition {
	return &models.GraphDefinition{
		Name:       name,
		Nodes:      []graph.NodeSpec{{Name: "a", Tool: "noop"}},
		EntryPoint: "a",
	}
}

func TestCreateAndFetchGraph(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	id, err := repo.CreateGraph(ctx, sampleGraph("g1"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	byID, err := repo.GraphByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "g1", byID.Name)

	byName, err := repo.GraphByName(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
}

func TestCreateGraphRejectsDuplicateName(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.CreateGraph(ctx, sampleGraph("dup"))
	require.NoError(t, err)

	_, err = repo.CreateGraph(ctx, sampleGraph("dup"))
	require.Error(t, err)
	assert.True(t, persistence.IsGraphNameTaken(err))
}

func TestSoftDeleteGraphFreesTheNameAndHidesFromActiveListing(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	id, err := repo.CreateGraph(ctx, sampleGraph("ephemeral"))
	require.NoError(t, err)

	require.NoError(t, repo.SoftDeleteGraph(ctx, id))

	_, err = repo.GraphByName(ctx, "ephemeral")
	assert.True(t, persistence.IsGraphNotFound(err))

	active, err := repo.ListGraphs(ctx, 0, 0, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.ListGraphs(ctx, 0, 0, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.CreateGraph(ctx, sampleGraph("ephemeral"))
	assert.NoError(t, err)
}

func TestRunLifecycleAndExecutionLog(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	graphID, err := repo.CreateGraph(ctx, sampleGraph("g2"))
	require.NoError(t, err)

	run, err := repo.CreateRun(ctx, graphID, map[string]any{"seed": 1})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, run.Status)

	require.NoError(t, repo.AppendExecutionLog(ctx, &models.ExecutionLog{RunID: run.RunID, NodeName: "a", Status: models.NodeStatusCompleted, Iteration: 0}))

	fetched, logs, err := repo.RunByRunID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, fetched.RunID)
	require.Len(t, logs, 1)
	assert.Equal(t, "a", logs[0].NodeName)

	require.NoError(t, repo.UpdateRunFinalState(ctx, run.RunID, map[string]any{"done": true}, 1, 12))

	fetched, _, err = repo.RunByRunID(ctx, run.RunID)
	require.NoError(t, err)
	require.NotNil(t, fetched.TotalIterations)
	assert.Equal(t, 1, *fetched.TotalIterations)
}

func TestCreateRunFailsForUnknownGraph(t *testing.T) {
	repo := memory.New()

	_, err := repo.CreateRun(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.True(t, persistence.IsGraphNotFound(err))
}

func TestListRunsFiltersByGraphAndStatus(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	graphID, err := repo.CreateGraph(ctx, sampleGraph("g3"))
	require.NoError(t, err)

	run1, err := repo.CreateRun(ctx, graphID, nil)
	require.NoError(t, err)

	_, err = repo.CreateRun(ctx, graphID, nil)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateRunStatus(ctx, run1.RunID, models.RunStatusCompleted, nil, nil, nil))

	completed, err := repo.ListRuns(ctx, persistence.RunFilter{GraphID: graphID, Status: models.RunStatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, run1.RunID, completed[0].RunID)
}
