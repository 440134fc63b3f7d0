package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notifydo/internal/config"
	"github.com/sakif/notifydo/internal/model"
	"github.com/sakif/notifydo/internal/repository/sqlite"
	"github.com/sakif/notifydo/internal/server"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		JWTSecret:   "test-secret-0123456789",
		TokenTTL:    time.Hour,
		BcryptCost:  4,
		CORSOrigins: []string{"http://localhost:5173"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := server.New(cfg, store, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// call sends a JSON request and decodes the response into out when out is non-nil.
func call(t *testing.T, ts *httptest.Server, method, path, token, body string, out any) int {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func register(t *testing.T, ts *httptest.Server, name, email string) model.Session {
	t.Helper()

	var session model.Session
	status := call(t, ts, http.MethodPost, "/api/users", "",
		`{"name":"`+name+`","email":"`+email+`","password":"secret1"}`, &session)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, session.Token)
	return session
}

func TestServer_RootAndHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "NotifyDo API is running", string(body))

	var health map[string]string
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/healthz", "", "", &health))
	assert.Equal(t, "ok", health["status"])
}

func TestServer_RegisterLoginProfile(t *testing.T) {
	ts := newTestServer(t)
	registered := register(t, ts, "Ada", "Ada@Example.com")
	assert.Equal(t, "ada@example.com", registered.Email)

	var loggedIn model.Session
	status := call(t, ts, http.MethodPost, "/api/users/login", "",
		`{"email":"ada@example.com","password":"secret1"}`, &loggedIn)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, registered.ID, loggedIn.ID)

	var profile model.Profile
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/users/profile", loggedIn.Token, "", &profile))
	assert.Equal(t, model.Profile{ID: registered.ID, Name: "Ada", Email: "ada@example.com"}, profile)

	assert.Equal(t, http.StatusUnauthorized, call(t, ts, http.MethodGet, "/api/users/profile", "", "", nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, ts, http.MethodGet, "/api/users/profile", "garbage", "", nil))

	status = call(t, ts, http.MethodPost, "/api/users/login", "",
		`{"email":"ada@example.com","password":"wrong-password"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = call(t, ts, http.MethodPost, "/api/users", "",
		`{"name":"Other","email":"ADA@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_TaskLifecycleAndOwnership(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "Alice", "alice@example.com")
	bob := register(t, ts, "Bob", "bob@example.com")

	var created model.Task
	status := call(t, ts, http.MethodPost, "/api/tasks", alice.Token,
		`{"title":"Buy milk","priority":"low"}`, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, alice.ID, created.UserID)
	assert.Equal(t, model.PriorityLow, created.Priority)
	assert.Equal(t, []string{}, created.Tags)

	var aliceTasks []model.Task
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/tasks", alice.Token, "", &aliceTasks))
	require.Len(t, aliceTasks, 1)
	assert.Equal(t, "Buy milk", aliceTasks[0].Title)

	var bobTasks []model.Task
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/tasks", bob.Token, "", &bobTasks))
	assert.Empty(t, bobTasks)

	path := "/api/tasks/" + created.ID
	missing := "/api/tasks/doesnotexist000000000"

	// A non-owner sees 401; a task that never existed is 404 for anyone.
	assert.Equal(t, http.StatusUnauthorized, call(t, ts, http.MethodGet, path, bob.Token, "", nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, ts, http.MethodPut, path, bob.Token, `{"completed":true}`, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, ts, http.MethodDelete, path, bob.Token, "", nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, missing, bob.Token, "", nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodDelete, missing, alice.Token, "", nil))

	var updated model.Task
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPut, path, alice.Token,
		`{"completed":true,"tags":["errand"]}`, &updated))
	assert.True(t, updated.Completed)
	assert.Equal(t, []string{"errand"}, updated.Tags)

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPut, path, alice.Token, `{"completed":false}`, &updated))
	assert.False(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Title)

	var removed map[string]string
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodDelete, path, alice.Token, "", &removed))
	assert.Equal(t, "Task removed", removed["message"])
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, path, alice.Token, "", nil))
}

func TestServer_TasksRequireToken(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	assert.Equal(t, http.StatusUnauthorized, call(t, ts, http.MethodGet, "/api/tasks", "", "", &body))
	assert.Equal(t, "Not authorized, no token", body["message"])
}

func TestServer_GitHubRoutesOnlyWhenConfigured(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/api/users/github/login", "", "", nil))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	call(t, ts, http.MethodGet, "/api/tasks", "", "", nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "notifydo_api_http_requests_total")
	assert.Contains(t, string(body), `status="401"`)
}
