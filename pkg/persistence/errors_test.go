package persistence_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nullstream/graphd/pkg/persistence"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error constants are available", func(t *testing.T) {
		assert.NotNil(t, persistence.ErrGraphNotFound)
		assert.NotNil(t, persistence.ErrRunNotFound)
		assert.NotNil(t, persistence.ErrGraphNameTaken)
	})

	t.Run("error checking functions work correctly", func(t *testing.T) {
		graphErr := persistence.NewGraphError("GetByID", "graph-123", persistence.ErrGraphNotFound)
		runErr := persistence.NewRunError("GetByRunID", "run-456", persistence.ErrRunNotFound)

		assert.True(t, persistence.IsGraphNotFound(graphErr))
		assert.True(t, persistence.IsRunNotFound(runErr))

		assert.True(t, errors.Is(graphErr, persistence.ErrGraphNotFound))
		assert.True(t, errors.Is(runErr, persistence.ErrRunNotFound))

		assert.False(t, persistence.IsGraphNotFound(runErr))
	})

	t.Run("graph error contains context", func(t *testing.T) {
		err := persistence.NewGraphError("GetByID", "graph-123", persistence.ErrGraphNotFound)

		assert.Contains(t, err.Error(), "GetByID")
		assert.Contains(t, err.Error(), "graph-123")
		assert.Contains(t, err.Error(), "graph not found")
	})

	t.Run("run error contains context", func(t *testing.T) {
		err := persistence.NewRunError("UpdateStatus", "run-456", persistence.ErrRunNotFound)

		assert.Contains(t, err.Error(), "UpdateStatus")
		assert.Contains(t, err.Error(), "run-456")
		assert.Contains(t, err.Error(), "run not found")
	})
}
