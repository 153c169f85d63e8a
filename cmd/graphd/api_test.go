package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullstream/graphd/pkg/config"
)

func setupTestAPI(t *testing.T) *API {
	t.Helper()

	api, err := newAPI(context.Background(), config.Default(), true)
	require.NoError(t, err)

	return api
}

func TestRootEndpointReturnsOK(t *testing.T) {
	api := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := api.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthEndpointReturnsOK(t *testing.T) {
	api := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := api.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewAPIRequiresDatabaseURLWhenNotInMemory(t *testing.T) {
	_, err := newAPI(context.Background(), config.Default(), false)
	assert.Error(t, err)
}
