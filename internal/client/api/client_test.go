package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notifydo/internal/model"
)

type memTokens struct {
	mu    sync.Mutex
	token string
}

func (m *memTokens) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memTokens) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memTokens) ClearToken() error {
	return m.SetToken("")
}

func newTestClient(t *testing.T, h http.Handler, tokens TokenStore, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api", tokens, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNew(t *testing.T) {
	c, err := New("", &memTokens{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)

	c, err = New("example.com/api/", &memTokens{})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api", c.baseURL)

	_, err = New("http://localhost", nil)
	assert.Error(t, err)
}

func TestClient_LoginStoresToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, model.Session{
			Profile: model.Profile{ID: "u1", Name: "Ada", Email: "ada@example.com"},
			Token:   "tok-1",
		})
	})

	tokens := &memTokens{}
	c := newTestClient(t, mux, tokens)

	session, err := c.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.ID)
	assert.Equal(t, "tok-1", tokens.token)
}

func TestClient_BadCredentialsKeepToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":   "unauthorized",
			"message": "Invalid email or password",
		})
	})

	fired := false
	tokens := &memTokens{token: "existing"}
	c := newTestClient(t, mux, tokens, WithOnUnauthorized(func() { fired = true }))

	_, err := c.Login(context.Background(), "ada@example.com", "nope")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Invalid email or password", err.(APIError).Message)
	assert.Equal(t, "existing", tokens.token)
	assert.False(t, fired)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []model.Task{{ID: "t1", Title: "Buy milk"}})
	})

	c := newTestClient(t, mux, &memTokens{token: "tok-1"})

	tasks, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
}

func TestClient_UnauthorizedClearsToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized, token failed"})
	})

	fired := false
	tokens := &memTokens{token: "expired"}
	c := newTestClient(t, mux, tokens, WithOnUnauthorized(func() { fired = true }))

	_, err := c.Profile(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Empty(t, tokens.token)
	assert.True(t, fired)
}

func TestClient_UpdateSendsOnlyPresentFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"completed":false}`, string(data))
		writeJSON(w, http.StatusOK, model.Task{ID: r.PathValue("id"), Title: "Buy milk"})
	})

	c := newTestClient(t, mux, &memTokens{token: "tok"})

	task, err := c.ToggleTask(context.Background(), "t1", false)
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
}

func TestClient_CreateGetDelete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		var in model.TaskInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusCreated, model.Task{ID: "t1", Title: in.Title, Priority: in.Priority})
	})
	mux.HandleFunc("GET /api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "Task not found"})
	})
	mux.HandleFunc("DELETE /api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Task removed"})
	})

	c := newTestClient(t, mux, &memTokens{token: "tok"})
	ctx := context.Background()

	task, err := c.CreateTask(ctx, model.TaskInput{Title: "Buy milk", Priority: model.PriorityLow})
	require.NoError(t, err)
	assert.Equal(t, model.PriorityLow, task.Priority)

	_, err = c.GetTask(ctx, "missing")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))

	msg, err := c.DeleteTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Task removed", msg)
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "api request failed with status 500", APIError{Status: 500}.Error())
	assert.Equal(t, "api request failed (404): gone", APIError{Status: 404, Message: "gone"}.Error())
}
