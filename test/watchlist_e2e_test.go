//go:build e2e

package test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, baseURL, token string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws/watchlist/stream?token=" + url.QueryEscape(token)
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWatchlistE2E(t *testing.T) {
	env := SetupTestEnvironment(t)
	token := signUp(t, env.Client, env.BaseURL, "carol@example.com", "pw123456")

	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t, []string{"bitcoin", "ethereum", "solana", "cardano", "tron"},
			listCoinIDs(t, env.Client, env.BaseURL, token))
	})

	stream := dialStream(t, env.BaseURL, token)

	t.Run("add by symbol", func(t *testing.T) {
		status, body, err := doJSON(t, env.Client, http.MethodPost, env.BaseURL+addPath, token, map[string]string{"symbol": "DOGE"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status, "body: %v", body)
		assert.Equal(t, "Added Dogecoin (DOGE)", body["message"])
		assert.Equal(t, "dogecoin", body["data"].(map[string]any)["id"])

		ids := listCoinIDs(t, env.Client, env.BaseURL, token)
		assert.Equal(t, "dogecoin", ids[len(ids)-1])
	})

	t.Run("stream delivers add", func(t *testing.T) {
		require.NoError(t, stream.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev map[string]string
		require.NoError(t, stream.ReadJSON(&ev))
		assert.Equal(t, map[string]string{"type": "added", "coin": "dogecoin"}, ev)
	})

	t.Run("add twice keeps one entry", func(t *testing.T) {
		status, _, err := doJSON(t, env.Client, http.MethodPost, env.BaseURL+addPath, token, map[string]string{"symbol": "dogecoin"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		count := 0
		for _, id := range listCoinIDs(t, env.Client, env.BaseURL, token) {
			if id == "dogecoin" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("add unknown coin", func(t *testing.T) {
		status, body, err := doJSON(t, env.Client, http.MethodPost, env.BaseURL+addPath, token, map[string]string{"symbol": "notacoin"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, status)
		assert.NotEmpty(t, body["suggestions"])
	})

	t.Run("add blank symbol", func(t *testing.T) {
		status, body, err := doJSON(t, env.Client, http.MethodPost, env.BaseURL+addPath, token, map[string]string{"symbol": ""})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Valid symbol is required", body["message"])
	})

	t.Run("search", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, env.BaseURL+searchPath+"?query=sol", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := env.Client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("delete case-insensitive", func(t *testing.T) {
		status, body, err := doJSON(t, env.Client, http.MethodDelete, env.BaseURL+deletePath+"DOGECOIN", token, nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status, "body: %v", body)
		assert.Equal(t, []any{"bitcoin", "ethereum", "solana", "cardano", "tron"}, body["remainingCoins"])

		require.NoError(t, stream.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev map[string]string
		require.NoError(t, stream.ReadJSON(&ev))
		assert.Equal(t, "removed", ev["type"])
	})

	t.Run("delete missing", func(t *testing.T) {
		status, body, err := doJSON(t, env.Client, http.MethodDelete, env.BaseURL+deletePath+"dogecoin", token, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Len(t, body["yourCoins"], 5)
		assert.Equal(t, false, body["success"])
	})

	t.Run("market down", func(t *testing.T) {
		env.Market.down.Store(true)
		defer env.Market.down.Store(false)

		status, body, err := doJSON(t, env.Client, http.MethodGet, env.BaseURL+cryptosPath, token, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Failed to fetch crypto data", body["message"])
	})

	t.Run("requires token", func(t *testing.T) {
		status, body, err := doJSON(t, env.Client, http.MethodGet, env.BaseURL+cryptosPath, "", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "No token, authorization denied", body["message"])
	})
}
