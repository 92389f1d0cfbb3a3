// Command ping probes the local /healthz endpoint and exits non-zero when the
// server is unhealthy. Intended for Docker HEALTHCHECK.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort    = 3000
	healthEndpoint = "/healthz"
	requestTimeout = 2 * time.Second
)

// exit codes
const (
	codeRequestFailed     = 2
	codeBadHTTPStatus     = 3
	codeDecodeError       = 4
	codeReportedUnhealthy = 5
)

// probeError carries the exit code for a failed probe.
type probeError struct {
	code int
	msg  string
}

func (e *probeError) Error() string { return e.msg }

// healthResp mirrors the server body {"status":"ok"|"down","error":...}.
type healthResp struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	port := detectPort(os.Getenv("APP_PORT"))
	url := fmt.Sprintf("http://localhost:%d%s", port, healthEndpoint)

	if err := probe(&http.Client{Timeout: requestTimeout}, url); err != nil {
		log.Print(err)
		var pe *probeError
		if errors.As(err, &pe) {
			os.Exit(pe.code)
		}
		os.Exit(1)
	}
	log.Printf("service healthy on port %d", port)
}

// probe fetches url and checks the reported status.
func probe(client *http.Client, url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return &probeError{codeRequestFailed, fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	var h healthResp
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return &probeError{codeDecodeError, fmt.Sprintf("decode error: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &probeError{codeBadHTTPStatus, fmt.Sprintf("unexpected HTTP status %d: %s", resp.StatusCode, h.Error)}
	}
	if h.Status != "" && h.Status != "ok" {
		return &probeError{codeReportedUnhealthy, fmt.Sprintf("service reported unhealthy: %q", h.Status)}
	}
	return nil
}

// detectPort parses APP_PORT and falls back to defaultPort.
func detectPort(v string) int {
	if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
		return p
	}
	return defaultPort
}
