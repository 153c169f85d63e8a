package web

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nullstream/graphd/pkg/models"
)

func TestTerminalEventForUsesFinalStateWhenPresent(t *testing.T) {
	iterations := 3
	durationMs := int64(450)
	run := &models.Run{
		RunID:                "run-1",
		Status:               models.RunStatusCompleted,
		FinalState:           map[string]any{"result": "ok"},
		CurrentState:         map[string]any{"result": "stale"},
		TotalIterations:      &iterations,
		TotalExecutionTimeMs: &durationMs,
	}

	event := terminalEventFor(run)

	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, string(models.RunStatusCompleted), event.Status)
	assert.Equal(t, "ok", event.FinalState["result"])
	assert.Equal(t, 3, event.TotalIterations)
	assert.Equal(t, int64(450), event.TotalDurationMs)
}

func TestTerminalEventForFallsBackToCurrentStateWhenFinalStateIsNil(t *testing.T) {
	run := &models.Run{
		RunID:        "run-2",
		Status:       models.RunStatusFailed,
		CurrentState: map[string]any{"result": "partial"},
	}

	event := terminalEventFor(run)

	assert.Equal(t, "partial", event.FinalState["result"])
}
