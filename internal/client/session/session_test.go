package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notifydo/internal/client/api"
	"github.com/sakif/notifydo/internal/client/cache"
	"github.com/sakif/notifydo/internal/model"
)

// fakeAPI mimics the server for one user. Login and Register store the
// token like the real client does.
type fakeAPI struct {
	tokens api.TokenStore

	profile   model.Profile
	tasks     []model.Task
	err       error // returned by every call when set
	listErr   error // returned by ListTasks alone
	listCalls int
	lastPatch model.TaskPatch
}

func (f *fakeAPI) Register(_ context.Context, name, email, _ string) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.profile = model.Profile{ID: "u1", Name: name, Email: email}
	f.tokens.SetToken("tok-new")
	return &model.Session{Profile: f.profile, Token: "tok-new"}, nil
}

func (f *fakeAPI) Login(_ context.Context, email, _ string) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tokens.SetToken("tok-login")
	return &model.Session{Profile: f.profile, Token: "tok-login"}, nil
}

func (f *fakeAPI) Profile(context.Context) (*model.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := f.profile
	return &p, nil
}

func (f *fakeAPI) ListTasks(context.Context) ([]model.Task, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Task{}, f.tasks...), nil
}

func (f *fakeAPI) CreateTask(_ context.Context, in model.TaskInput) (*model.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	// The server fills defaults the client did not send.
	return &model.Task{ID: "t-new", Title: in.Title, Priority: model.PriorityMedium, Tags: []string{}}, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastPatch = patch
	for _, t := range f.tasks {
		if t.ID == id {
			patch.Apply(&t)
			t.UpdatedAt = t.UpdatedAt.Add(1)
			return &t, nil
		}
	}
	return nil, api.APIError{Status: http.StatusNotFound, Message: "Task not found"}
}

func (f *fakeAPI) ToggleTask(ctx context.Context, id string, completed bool) (*model.Task, error) {
	return f.UpdateTask(ctx, id, model.TaskPatch{Completed: &completed})
}

func (f *fakeAPI) DeleteTask(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "Task removed", nil
}

type memTokens struct{ token string }

func (m *memTokens) Token() (string, error) { return m.token, nil }
func (m *memTokens) SetToken(t string) error { m.token = t; return nil }
func (m *memTokens) ClearToken() error { m.token = ""; return nil }

type recorder struct{ got []Notification }

func (r *recorder) Notify(n Notification) { r.got = append(r.got, n) }

func (r *recorder) last() Notification {
	if len(r.got) == 0 {
		return Notification{}
	}
	return r.got[len(r.got)-1]
}

type fixture struct {
	session *Session
	api     *fakeAPI
	tokens  *memTokens
	cache   *cache.TaskCache
	notes   *recorder
}

func newFixture() *fixture {
	tokens := &memTokens{}
	fake := &fakeAPI{
		tokens:  tokens,
		profile: model.Profile{ID: "u1", Name: "Ada", Email: "ada@example.com"},
		tasks: []model.Task{
			{ID: "t1", Title: "Buy milk", Completed: true},
			{ID: "t2", Title: "Call mum"},
		},
	}
	c := cache.New()
	notes := &recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		session: New(fake, tokens, c, notes, logger),
		api:     fake,
		tokens:  tokens,
		cache:   c,
		notes:   notes,
	}
}

var errUnauthorized = api.APIError{Status: http.StatusUnauthorized, Message: "Not authorized, token failed"}

func TestLogin_EntersAuthenticatedAndLoadsCache(t *testing.T) {
	f := newFixture()
	assert.Equal(t, Anonymous, f.session.State())

	require.NoError(t, f.session.Login(context.Background(), "ada@example.com", "secret1"))

	assert.Equal(t, Authenticated, f.session.State())
	assert.Equal(t, "Ada", f.session.User().Name)
	assert.Equal(t, "tok-login", f.tokens.token)
	assert.Equal(t, 1, f.api.listCalls)
	assert.Len(t, f.session.Tasks(), 2)
	assert.Equal(t, LevelSuccess, f.notes.last().Level)
}

func TestLogin_FailureStaysAnonymous(t *testing.T) {
	f := newFixture()
	f.api.err = api.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}

	err := f.session.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)

	assert.Equal(t, Anonymous, f.session.State())
	assert.Nil(t, f.session.User())
	assert.Equal(t, Notification{Level: LevelError, Title: "Login failed", Message: "Invalid email or password"}, f.notes.last())
	assert.Zero(t, f.api.listCalls)
}

func TestSignIn_TaskFetchFailureKeepsSession(t *testing.T) {
	unavailable := api.APIError{Status: http.StatusInternalServerError, Message: "Server error"}

	titles := func(notes []Notification) []string {
		out := make([]string, 0, len(notes))
		for _, n := range notes {
			out = append(out, n.Title)
		}
		return out
	}

	t.Run("login", func(t *testing.T) {
		f := newFixture()
		f.api.listErr = unavailable

		require.NoError(t, f.session.Login(context.Background(), "ada@example.com", "secret1"))

		assert.Equal(t, Authenticated, f.session.State())
		assert.Equal(t, "tok-login", f.tokens.token)
		assert.False(t, f.session.TasksLoaded())
		assert.Equal(t, []string{"Could not load tasks", "Welcome back"}, titles(f.notes.got))

		f.api.listErr = nil
		require.NoError(t, f.session.Refresh(context.Background()))
		assert.True(t, f.session.TasksLoaded())
		assert.Len(t, f.session.Tasks(), 2)
	})

	t.Run("adopted token", func(t *testing.T) {
		f := newFixture()
		f.api.listErr = unavailable

		require.NoError(t, f.session.AdoptToken(context.Background(), "from-github"))

		assert.Equal(t, Authenticated, f.session.State())
		assert.Equal(t, "from-github", f.tokens.token)
		assert.NotContains(t, titles(f.notes.got), "Sign-in failed")
		assert.Equal(t, "Signed in", f.notes.last().Title)
	})

	t.Run("rejected on first fetch", func(t *testing.T) {
		f := newFixture()
		f.api.listErr = errUnauthorized

		require.Error(t, f.session.Login(context.Background(), "ada@example.com", "secret1"))

		assert.Equal(t, Anonymous, f.session.State())
		assert.Empty(t, f.tokens.token)
		assert.Equal(t, "Session expired", f.notes.last().Title)
	})
}

func TestRegister(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.session.Register(context.Background(), "Grace", "grace@example.com", "secret1"))

	assert.Equal(t, Authenticated, f.session.State())
	assert.Equal(t, "grace@example.com", f.session.User().Email)
	assert.Equal(t, "tok-new", f.tokens.token)
	assert.Equal(t, "Account created", f.notes.last().Title)
}

func TestRestore(t *testing.T) {
	t.Run("no token stays anonymous", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.session.Restore(context.Background()))
		assert.Equal(t, Anonymous, f.session.State())
		assert.Zero(t, f.api.listCalls)
	})

	t.Run("valid token authenticates", func(t *testing.T) {
		f := newFixture()
		f.tokens.token = "stored"
		require.NoError(t, f.session.Restore(context.Background()))
		assert.Equal(t, Authenticated, f.session.State())
		assert.True(t, f.cache.Loaded())
	})

	t.Run("rejected token is cleared", func(t *testing.T) {
		f := newFixture()
		f.tokens.token = "stale"
		f.api.err = errUnauthorized

		require.Error(t, f.session.Restore(context.Background()))
		assert.Equal(t, Anonymous, f.session.State())
		assert.Empty(t, f.tokens.token)
	})
}

func TestAdoptToken(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.session.AdoptToken(context.Background(), "from-github"))
	assert.Equal(t, "from-github", f.tokens.token)
	assert.Equal(t, Authenticated, f.session.State())

	assert.Error(t, newFixture().session.AdoptToken(context.Background(), ""))
}

func TestLogout_ClearsTokenAndCache(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.session.Login(context.Background(), "ada@example.com", "secret1"))

	require.NoError(t, f.session.Logout())

	assert.Equal(t, Anonymous, f.session.State())
	assert.Empty(t, f.tokens.token)
	assert.False(t, f.cache.Loaded())
	assert.Empty(t, f.session.Tasks())
}

func TestTaskActions_RequireAuthentication(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.session.CreateTask(ctx, model.TaskInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = f.session.ToggleTask(ctx, "t1")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.ErrorIs(t, f.session.DeleteTask(ctx, "t1"), ErrNotAuthenticated)
	assert.ErrorIs(t, f.session.Refresh(ctx), ErrNotAuthenticated)
}

func TestCreateTask_CachesServerCopy(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.session.Login(ctx, "ada@example.com", "secret1"))

	task, err := f.session.CreateTask(ctx, model.TaskInput{Title: "Water plants"})
	require.NoError(t, err)

	cached, ok := f.cache.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, model.PriorityMedium, cached.Priority, "cache holds the server's defaults")
	assert.Equal(t, 3, f.cache.Len())
}

func TestToggleTask_FlipsCachedValue(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.session.Login(ctx, "ada@example.com", "secret1"))

	task, err := f.session.ToggleTask(ctx, "t1")
	require.NoError(t, err)

	assert.False(t, task.Completed)
	require.NotNil(t, f.api.lastPatch.Completed)
	assert.False(t, *f.api.lastPatch.Completed)
	cached, _ := f.cache.Get("t1")
	assert.False(t, cached.Completed)
	assert.Equal(t, "Task reopened", f.notes.last().Title)

	_, err = f.session.ToggleTask(ctx, "unknown")
	assert.Error(t, err)
}

func TestUpdateTask_FailureLeavesCacheUnchanged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.session.Login(ctx, "ada@example.com", "secret1"))
	before := f.session.Tasks()

	f.api.err = api.APIError{Status: http.StatusBadRequest, Message: "Title is required"}
	title := ""
	_, err := f.session.UpdateTask(ctx, "t2", model.TaskPatch{Title: &title})
	require.Error(t, err)

	assert.Equal(t, before, f.session.Tasks())
	assert.Equal(t, Notification{Level: LevelError, Title: "Could not update task", Message: "Title is required"}, f.notes.last())
	assert.Equal(t, Authenticated, f.session.State())
}

func TestDeleteTask(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.session.Login(ctx, "ada@example.com", "secret1"))

	require.NoError(t, f.session.DeleteTask(ctx, "t1"))

	_, ok := f.cache.Get("t1")
	assert.False(t, ok)
	assert.Equal(t, "Task removed", f.notes.last().Title)
}

func TestUnauthorizedResponseExpiresSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.session.Login(ctx, "ada@example.com", "secret1"))

	f.api.err = errUnauthorized
	err := f.session.DeleteTask(ctx, "t1")
	require.Error(t, err)

	assert.Equal(t, Anonymous, f.session.State())
	assert.Empty(t, f.tokens.token)
	assert.False(t, f.cache.Loaded())
	assert.Equal(t, "Session expired", f.notes.last().Title)
}

func TestNonAPIErrorMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.session.Login(ctx, "ada@example.com", "secret1"))

	f.api.err = errors.New("dial tcp: connection refused")
	require.Error(t, f.session.Refresh(ctx))
	assert.Equal(t, "dial tcp: connection refused", f.notes.last().Message)
	assert.True(t, f.cache.Loaded(), "previous cache survives a failed refresh")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "authenticating", Authenticating.String())
	assert.Equal(t, "State(9)", State(9).String())
}
