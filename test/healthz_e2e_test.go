//go:build e2e

package test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthzE2E(t *testing.T) {
	env := SetupTestEnvironment(t)

	resp, err := env.Client.Get(env.BaseURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "ok", payload["status"])
}

func TestMetricsE2E(t *testing.T) {
	env := SetupTestEnvironment(t)

	_, _, err := doJSON(t, env.Client, http.MethodGet, env.BaseURL+"/healthz", "", nil)
	require.NoError(t, err)

	resp, err := env.Client.Get(env.BaseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.Contains(text, "http_requests_total"), "request counter exported")
	assert.True(t, strings.Contains(text, "watchlist_stream_connections"), "hub gauge exported")
}
