// Package testutil builds Fiber apps, tokens and requests for handler and
// middleware tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"crypto-pulse/cmd/server/ctxkeys"
	"crypto-pulse/cmd/server/handlers/httperr"
	"crypto-pulse/internal/config"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// wsTestKey is the sample Sec-WebSocket-Key from RFC 6455.
const wsTestKey = "dGhlIHNhbXBsZSBub25jZQ=="

// CreateTestApp returns a Fiber app using the server's error handler, with
// the global logger set to debug text output.
func CreateTestApp(t *testing.T) *fiber.App {
	t.Helper()
	_, err := logger.Init(config.Config{LogLevel: "debug", LogFormat: "text"})
	require.NoError(t, err)
	return fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
}

// CreateTestValidator returns a validator with the custom tags registered.
func CreateTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, crypto.RegisterPasswordValidator(v))
	return v
}

// CreateTestJWT signs an HS256 token shaped like the ones the server issues.
func CreateTestJWT(userID string, secret []byte, expiry time.Duration) (string, error) {
	iat := time.Now().UTC()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     iat.Unix(),
		"exp":     iat.Add(expiry).Unix(),
	}).SignedString(secret)
}

// SetupJWTMiddleware verifies bearer tokens signed with secret and stores
// the user_id claim under ctxkeys.UserIDKey. Any failure is a 401.
func SetupJWTMiddleware(secret string) fiber.Handler {
	unauthorized := func(msg string) error {
		return httperr.Fail(httperr.E{Status: fiber.StatusUnauthorized, Message: msg})
	}
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(secret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			claims, _ := c.Locals("user").(*jwt.Token).Claims.(jwt.MapClaims)
			id, ok := claims["user_id"].(string)
			if !ok {
				return unauthorized("Invalid token")
			}
			c.Locals(ctxkeys.UserIDKey, id)
			return c.Next()
		},
		ErrorHandler: func(*fiber.Ctx, error) error {
			return unauthorized("Token is not valid")
		},
	})
}

// CreateRateLimiter is a per-IP limiter answering 429 once max is spent.
func CreateRateLimiter(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   window,
		LimitReached: func(*fiber.Ctx) error { return httperr.Fail(httperr.ErrTooManyRequests) },
	})
}

// CreateJSONRequest builds a request whose body is body encoded as JSON.
// A nil body sends no payload.
func CreateJSONRequest(method, target string, body any) *http.Request {
	var payload io.Reader = http.NoBody
	if body != nil {
		raw, _ := json.Marshal(body)
		payload = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, payload)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

// CreateAuthenticatedRequest is CreateJSONRequest with a bearer token.
func CreateAuthenticatedRequest(method, target string, body any, token string) *http.Request {
	req := CreateJSONRequest(method, target, body)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}

// DecodeJSON reads and closes resp's body as a JSON object.
func DecodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// CreateWebSocketRequest builds an upgrade request; a nil token omits the
// query parameter entirely.
func CreateWebSocketRequest(target string, token *string) *http.Request {
	if token != nil {
		target += "?token=" + url.QueryEscape(*token)
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", wsTestKey)
	return req
}
