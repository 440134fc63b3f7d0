// Package api is a typed client for the NotifyDo REST API.
//
// The client reads the bearer token from a TokenStore on every request, so
// a token saved by one command is picked up by the next. A 401 on any
// request that carried a token clears the stored token and fires the
// OnUnauthorized hook.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/notifydo/internal/model"
)

// DefaultBaseURL is used when no server is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// TokenStore is durable key/value storage for the session token.
// Token returns "" with a nil error when nothing is stored.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// Client provides typed access to the NotifyDo API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenStore
	onUnauthorized func()
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithOnUnauthorized registers fn to run after a 401 has cleared the token.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// New constructs a Client for the API rooted at base (".../api").
func New(base string, tokens TokenStore, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if tokens == nil {
		return nil, errors.New("token store is required")
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.Session, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.authenticate(ctx, "/users", body)
}

// Login exchanges credentials for a token and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*model.Session, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/users/login", body)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*model.Session, error) {
	var session model.Session
	if err := c.do(ctx, http.MethodPost, path, body, false, &session); err != nil {
		return nil, err
	}
	if err := c.tokens.SetToken(session.Token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return &session, nil
}

// Profile returns the current user.
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	var profile model.Profile
	if err := c.do(ctx, http.MethodGet, "/users/profile", nil, true, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListTasks returns every task owned by the current user.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, true, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task and returns the stored version.
func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", in, true, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, true, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask sends a partial update; only the fields set in patch change.
func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), patch, true, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ToggleTask sets the completed flag.
func (c *Client) ToggleTask(ctx context.Context, id string, completed bool) (*model.Task, error) {
	return c.UpdateTask(ctx, id, model.TaskPatch{Completed: &completed})
}

// DeleteTask removes a task and returns the server's confirmation message.
func (c *Client) DeleteTask(ctx context.Context, id string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, true, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body any, authed bool, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	sentToken := false
	if authed {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		if token = strings.TrimSpace(token); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			sentToken = true
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized && sentToken {
			c.expireSession()
		}
		return apiErr
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// expireSession drops the stored token. A clear failure is ignored: the
// server has already rejected the token, so keeping it changes nothing.
func (c *Client) expireSession() {
	_ = c.tokens.ClearToken()
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func extractError(body io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if payload.Message != "" {
		return strings.TrimSpace(payload.Message)
	}
	return strings.TrimSpace(payload.Error)
}
