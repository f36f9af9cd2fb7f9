//go:build e2e

package e2e_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_LiveEndpoint verifies the /live liveness probe returns 200 OK.
func TestE2E_LiveEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := ts.Client.Get(ts.URL + "/live")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

// TestE2E_ReadyEndpoint verifies /ready answers 200 while the store is open.
func TestE2E_ReadyEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := ts.Client.Get(ts.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

// TestE2E_HealthEndpoint verifies /health reports each component, and that
// losing the translation source degrades the service without failing it.
func TestE2E_HealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	type health struct {
		Status     string                       `json:"status"`
		Version    string                       `json:"version"`
		Components map[string]map[string]string `json:"components"`
	}

	body := doJSON[health](t, ts, http.MethodGet, "/health", nil, http.StatusOK)
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Version)
	assert.Equal(t, "ok", body.Components["database"]["status"])
	assert.Equal(t, "ok", body.Components["translation"]["status"])

	ts.Wiki.Close()

	body = doJSON[health](t, ts, http.MethodGet, "/health", nil, http.StatusOK)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unreachable", body.Components["translation"]["status"])
}

// TestE2E_RequestIDPropagated verifies a caller-supplied request id is echoed.
func TestE2E_RequestIDPropagated(t *testing.T) {
	ts := setupTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/stats", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "e2e-trace-1")

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "e2e-trace-1", resp.Header.Get("X-Request-Id"))
}

// TestE2E_UnknownRoute verifies unmatched paths get 404 and wrong methods 405.
func TestE2E_UnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	status, _ := ts.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodPut, "/api/stats", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}
