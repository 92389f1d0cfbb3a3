//go:build e2e

package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiStep is one request in a scripted conversation with the server.
type apiStep struct {
	name   string
	method string
	path   string
	token  string
	body   any
	want   int
	check  func(*testing.T, map[string]any)
}

// runSteps executes steps in order against env, stopping at the first
// transport error.
func runSteps(t *testing.T, env *TestEnvironment, steps []apiStep) {
	t.Helper()
	for _, s := range steps {
		status, body, err := doJSON(t, env.Client, s.method, env.BaseURL+s.path, s.token, s.body)
		require.NoError(t, err, s.name)
		assert.Equal(t, s.want, status, "%s: %v", s.name, body)
		if s.check != nil {
			s.check(t, body)
		}
	}
}

func hasMessage(want string) func(*testing.T, map[string]any) {
	return func(t *testing.T, body map[string]any) {
		t.Helper()
		assert.Equal(t, want, body["message"])
	}
}

func stringField(t *testing.T, body map[string]any, key string) string {
	t.Helper()
	v, ok := body[key].(string)
	require.True(t, ok, "%s should be a string in %v", key, body)
	require.NotEmpty(t, v)
	return v
}
