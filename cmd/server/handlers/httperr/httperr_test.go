package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"crypto-pulse/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", apperr.Validation("Valid symbol is required"), 400, "Valid symbol is required"},
		{"auth", apperr.Auth("Invalid credentials"), 400, "Invalid credentials"},
		{"conflict", apperr.Conflict("user already exists"), 400, "user already exists"},
		{"unauthorized", apperr.Unauthorized("invalid token"), 401, "invalid token"},
		{"not found wrapped", fmt.Errorf("x: %w", apperr.NotFound("User not found")), 404, "User not found"},
		{"upstream", apperr.Upstream("Failed to fetch crypto data", errors.New("dial tcp")), 500, "Failed to fetch crypto data"},
		{"http error", ErrTooManyRequests, 429, "Too Many Requests"},
		{"fiber error", fiber.ErrMethodNotAllowed, 405, "Method Not Allowed"},
		{"unknown", errors.New("secret detail"), 500, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromError(tt.err)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.msg, e.Message)
		})
	}
}

func TestMarshalFlattensDetails(t *testing.T) {
	e := E{Status: 404, Message: `"doge" not found in your portfolio.`, Details: map[string]any{
		"yourCoins":  []string{"bitcoin"},
		"suggestion": "Try using the exact symbol from your list.",
	}}

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, e.Message, body["message"])
	assert.Equal(t, []any{"bitcoin"}, body["yourCoins"])
	assert.Equal(t, "Try using the exact symbol from your list.", body["suggestion"])
}

func TestHandlerRendersJSON(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler})
	app.Get("/missing", func(*fiber.Ctx) error {
		return apperr.NotFound("Coin not found").WithDetails(map[string]any{"suggestions": []string{"a"}})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 404, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"message":"Coin not found","suggestions":["a"]}`, string(raw))
}
