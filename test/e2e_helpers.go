//go:build e2e

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	signUpEndpoint = "/api/signup"
	loginEndpoint  = "/api/login"
	forgotEndpoint = "/api/forgot-password"
	verifyEndpoint = "/api/verify-otp"
	meEndpoint     = "/api/me"
	cryptosPath    = "/api/cryptos"
	addPath        = "/api/crypto/add"
	searchPath     = "/api/crypto/search"
	deletePath     = "/api/crypto/delete/"

	e2eDBName                    = "e2e"
	e2eJWTSecret                 = "e2e-secret-that-is-long-enough-for-hs256-signing"
	msgFailedToCloseResponseBody = "failed to close response body: %v"

	stderrCap = 64 << 10
)

// TestEnvironment is one server process backed by its own Mongo container
// and fake market-data provider.
type TestEnvironment struct {
	BaseURL  string
	MongoURI string
	Market   *fakeMarket
	Client   *http.Client
}

// cappedBuffer keeps the first max bytes written and silently drops the rest
// so a chatty server never blocks on its stderr pipe.
type cappedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - b.buf.Len(); room > 0 {
		b.buf.Write(p[:min(len(p), room)])
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func freePort() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port), nil
}

// startMongo runs a throwaway mongo:8.0 and returns its connection URI.
func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:8.0",
			ExposedPorts: []string{"27017/tcp"},
			Env: map[string]string{
				"MONGO_INITDB_ROOT_USERNAME": "root",
				"MONGO_INITDB_ROOT_PASSWORD": "example",
			},
			WaitingFor: wait.ForExec([]string{"mongosh", "--quiet", "--eval", "db.adminCommand('ping')"}).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err, "start mongo container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	endpoint, err := ctr.PortEndpoint(ctx, "27017/tcp", "")
	require.NoError(t, err)
	return "mongodb://root:example@" + endpoint + "/"
}

// serverProc is the server under test running as a child process group.
type serverProc struct {
	cmd    *exec.Cmd
	stderr *cappedBuffer
}

func (p *serverProc) stop() {
	if pgid, err := syscall.Getpgid(p.cmd.Process.Pid); err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	}
	done := make(chan struct{})
	go func() {
		_ = p.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = p.cmd.Process.Kill()
		<-done
	}
}

// startServer launches $BIN_SERVER, or `go run ./cmd/server` when unset.
func startServer(t *testing.T, port string, env map[string]string) *serverProc {
	t.Helper()

	var cmd *exec.Cmd
	if bin := os.Getenv("BIN_SERVER"); bin != "" {
		cmd = exec.Command(bin)
	} else {
		cmd = exec.Command("go", "run", "./cmd/server")
		cmd.Dir = "../"
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Env = append(cmd.Env, "APP_PORT="+port)

	proc := &serverProc{cmd: cmd, stderr: &cappedBuffer{max: stderrCap}}
	cmd.Stdout = io.Discard
	cmd.Stderr = proc.stderr

	t.Logf("launching server on :%s", port)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		proc.stop()
		if out := proc.stderr.String(); out != "" {
			t.Logf("server stderr (%d bytes):\n%s", len(out), out)
		}
	})
	return proc
}

func waitHealthy(baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(200 * time.Millisecond) {
		resp, err := client.Get(baseURL + "/healthz")
		if err != nil {
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return nil
		}
	}
	return fmt.Errorf("%s/healthz never returned 200", baseURL)
}

// SetupTestEnvironment starts a server with the default e2e settings.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	return SetupTestEnvironmentWithEnv(t, nil)
}

// SetupTestEnvironmentWithEnv starts a server whose environment is the e2e
// defaults overlaid with extraEnv.
func SetupTestEnvironmentWithEnv(t *testing.T, extraEnv map[string]string) *TestEnvironment {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	mongoURI := startMongo(ctx, t)
	market := newFakeMarket(t)

	env := map[string]string{
		"MONGO_URI":            mongoURI,
		"MONGO_DB_NAME":        e2eDBName,
		"JWT_SECRET":           e2eJWTSecret,
		"LOG_LEVEL":            "info",
		"BCRYPT_COST":          "10",
		"STATIC_DIR":           "",
		"SMTP_HOST":            "",
		"REDIS_ADDR":           "",
		"MARKET_DATA_BASE_URL": market.URL(),
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	port, err := freePort()
	require.NoError(t, err)
	proc := startServer(t, port, env)

	baseURL := "http://localhost:" + port
	if err := waitHealthy(baseURL, 30*time.Second); err != nil {
		t.Logf("server stderr:\n%s", proc.stderr.String())
		require.NoError(t, err)
	}

	return &TestEnvironment{
		BaseURL:  baseURL,
		MongoURI: mongoURI,
		Market:   market,
		Client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// signUp registers a user and returns the issued token.
func signUp(t *testing.T, c *http.Client, baseURL, email, password string) string {
	t.Helper()
	status, body, err := doJSON(t, c, http.MethodPost, baseURL+signUpEndpoint, "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status, "signup body: %v", body)
	return body["token"].(string)
}

func loginExpect(t *testing.T, c *http.Client, baseURL, email, password string, want int) map[string]any {
	t.Helper()
	status, body, err := doJSON(t, c, http.MethodPost, baseURL+loginEndpoint, "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)
	require.Equal(t, want, status, "login body: %v", body)
	return body
}

// doJSON sends body (if any) with an optional bearer token and decodes an
// object response. Array responses leave the map nil.
func doJSON(t *testing.T, c *http.Client, method, url, token string, body any) (int, map[string]any, error) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf(msgFailedToCloseResponseBody, err)
		}
	}()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out, nil
}

// listCoinIDs returns the ids served by GET /api/cryptos in order.
func listCoinIDs(t *testing.T, c *http.Client, baseURL, token string) []string {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+cryptosPath, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var coins []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&coins))

	ids := make([]string, 0, len(coins))
	for _, c := range coins {
		ids = append(ids, c.ID)
	}
	return ids
}
