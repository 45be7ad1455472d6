package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetctl/internal/config"
	"fleetctl/internal/health"
	"fleetctl/internal/lifecycle"
	"fleetctl/internal/registry"
)

func writeService(t *testing.T, root, id, descriptor string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DescriptorFileName), []byte(descriptor), 0644))
}

func newTestServer(t *testing.T, services map[string]string) *Server {
	t.Helper()
	root := t.TempDir()
	for id, descriptor := range services {
		writeService(t, root, id, descriptor)
	}

	reg := registry.New(root)
	_, err := reg.Discover()
	require.NoError(t, err)

	metrics := NewMetrics()
	monitor := health.New(reg, health.WithRecorder(metrics))
	ctrl := lifecycle.New(lifecycle.WithRecorder(metrics))
	return New(reg, monitor, ctrl, metrics)
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestListServices(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"alpha": "name: Alpha\ndescription: first\nlifecycle:\n  status: \"true\"\n",
		"beta":  "name: Beta\ndescription: second\nlifecycle:\n  status: \"exit 1\"\n",
	})

	w := doRequest(t, s, http.MethodGet, "/api/v1/services")
	require.Equal(t, http.StatusOK, w.Code)

	var views []ServiceView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "alpha", views[0].ID)
	assert.Equal(t, config.StatusRunning, views[0].Status)
	assert.Equal(t, "beta", views[1].ID)
	assert.Equal(t, config.StatusStopped, views[1].Status)
}

func TestGetService(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"alpha": "name: Alpha\ndescription: first\nlifecycle:\n  status: \"true\"\n",
	})

	w := doRequest(t, s, http.MethodGet, "/api/v1/services/alpha")
	require.Equal(t, http.StatusOK, w.Code)

	var view ServiceView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "alpha", view.ID)
	assert.Equal(t, "Alpha", view.Name)
	assert.Equal(t, config.StatusRunning, view.Status)
}

func TestGetService_UnknownIs404(t *testing.T) {
	s := newTestServer(t, nil)

	w := doRequest(t, s, http.MethodGet, "/api/v1/services/ghost")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, `unknown service "ghost"`, body["error"])
}

func TestGetService_TraversalIDIs404(t *testing.T) {
	s := newTestServer(t, nil)

	w := doRequest(t, s, http.MethodGet, "/api/v1/services/..")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartAction(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"alpha": "name: Alpha\ndescription: first\nlifecycle:\n  start: echo launched\n",
	})

	w := doRequest(t, s, http.MethodPost, "/api/v1/services/alpha/start")
	require.Equal(t, http.StatusOK, w.Code)

	var result ActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.OK)
	assert.Equal(t, "launched", result.Message)
}

func TestStartAction_FailureIs502(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"alpha": "name: Alpha\ndescription: first\nlifecycle:\n  start: echo doom >&2; exit 1\n",
	})

	w := doRequest(t, s, http.MethodPost, "/api/v1/services/alpha/start")
	require.Equal(t, http.StatusBadGateway, w.Code)

	var result ActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.OK)
	assert.Equal(t, "doom", result.Message)
}

func TestStopAndRestartActions(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"alpha": "name: Alpha\ndescription: first\nlifecycle:\n  stop: echo halted\n  restart: echo cycled\n",
	})

	w := doRequest(t, s, http.MethodPost, "/api/v1/services/alpha/stop")
	require.Equal(t, http.StatusOK, w.Code)
	var result ActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "halted", result.Message)

	w = doRequest(t, s, http.MethodPost, "/api/v1/services/alpha/restart")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "cycled", result.Message)
}

func TestAction_UnknownServiceIs404(t *testing.T) {
	s := newTestServer(t, nil)

	w := doRequest(t, s, http.MethodPost, "/api/v1/services/ghost/restart")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"alpha": "name: Alpha\ndescription: first\n",
	})

	w := doRequest(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["services"])
}

func TestMetricsEndpointExposesDomainSeries(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"alpha": "name: Alpha\ndescription: first\nlifecycle:\n  status: \"true\"\n  start: echo up\n",
	})

	// Generate one health check and one lifecycle action.
	require.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, "/api/v1/services/alpha").Code)
	require.Equal(t, http.StatusOK, doRequest(t, s, http.MethodPost, "/api/v1/services/alpha/start").Code)

	w := doRequest(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `fleetctl_health_checks_total{service="alpha",status="running"} 1`)
	assert.Contains(t, body, `fleetctl_lifecycle_actions_total{action="start",outcome="success",service="alpha"} 1`)
	assert.Contains(t, body, `fleetctl_http_requests_total`)
}
