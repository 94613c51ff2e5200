package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfleet/autoscaler/api"
	"github.com/openfleet/autoscaler/internal/auth"
	"github.com/openfleet/autoscaler/internal/cost"
	"github.com/openfleet/autoscaler/internal/engine"
	"github.com/openfleet/autoscaler/internal/provider"
	"github.com/openfleet/autoscaler/internal/scaler"
	"github.com/openfleet/autoscaler/pkg/config"
)

type serverFixture struct {
	server *api.Server
	engine *engine.Engine
	token  string
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	hash, err := auth.HashPassword("password")
	require.NoError(t, err)

	cfg := config.Config{}
	cfg.App.Mode = "test"
	cfg.API.JWTSecret = "test-secret"
	cfg.API.JWTIssuer = "autoscaler"
	cfg.API.Users = map[string]string{"admin": hash}

	eng := engine.New(engine.Config{
		MonitorInterval: time.Hour,
		PredictInterval: time.Hour,
		CostInterval:    time.Hour,
	}, engine.Deps{
		Provider: provider.NewMockProvider(provider.MockProviderConfig{}),
		Scaler:   scaler.NewSimulator(scaler.SimulatorConfig{}),
		Costs:    cost.NewEstimator(map[string]float64{"vm": 0.09}, 0.05),
	})

	f := &serverFixture{
		server: api.NewServer(api.Options{Config: cfg, Engine: eng}),
		engine: eng,
	}
	f.token = f.login(t, "admin", "password")
	return f
}

func (f *serverFixture) login(t *testing.T, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	f.server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (f *serverFixture) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, req)
	return w
}

func validCreateRequest() map[string]any {
	return map[string]any{
		"id":            "web",
		"name":          "web tier",
		"resource_type": "vm",
		"current_count": 3,
		"min_count":     1,
		"max_count":     10,
	}
}

func TestServer_Health(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.request(http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_LoginRejectsBadCredentials(t *testing.T) {
	f := newServerFixture(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	f.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_ProtectedRoutesRequireToken(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodGet, "/targets", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.request(http.MethodGet, "/targets", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_CreateAndGetTarget(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodPost, "/targets", validCreateRequest(), f.token)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(http.MethodGet, "/targets/web", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)

	var info engine.TargetInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "web", info.ID)
	assert.Equal(t, 3, info.CurrentCount)
	assert.Equal(t, "eligible", info.CooldownState)
}

func TestServer_CreateTargetValidation(t *testing.T) {
	f := newServerFixture(t)

	// Missing required fields.
	w := f.request(http.MethodPost, "/targets", map[string]any{"name": "x"}, f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bounds rejected by the engine.
	bad := validCreateRequest()
	bad["min_count"] = 20
	w = f.request(http.MethodPost, "/targets", bad, f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_CreateTargetDuplicate(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodPost, "/targets", validCreateRequest(), f.token)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(http.MethodPost, "/targets", validCreateRequest(), f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_GetTargetNotFound(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodGet, "/targets/missing", nil, f.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ListTargets(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodPost, "/targets", validCreateRequest(), f.token)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(http.MethodGet, "/targets", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestServer_TargetActions(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodPost, "/targets", validCreateRequest(), f.token)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(http.MethodGet, "/targets/web/actions", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)

	w = f.request(http.MethodGet, "/targets/web/actions?limit=abc", nil, f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.request(http.MethodGet, "/targets/missing/actions", nil, f.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StatusAndEngineControl(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodGet, "/status", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)

	var status engine.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.MonitoringActive)

	w = f.request(http.MethodPost, "/engine/start", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.engine.Running())

	w = f.request(http.MethodPost, "/engine/stop", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.engine.Running())
}
