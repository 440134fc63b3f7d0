package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/notifydo/internal/auth"
	"github.com/sakif/notifydo/internal/service"
)

const oauthStateCookie = "oauth_state"

// GitHubExchanger is the OAuth half of sign-in; *auth.GitHubProvider satisfies it.
type GitHubExchanger interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// GitHubAccounts turns a GitHub profile into a NotifyDo session.
type GitHubAccounts interface {
	LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*service.AuthResult, error)
}

// GitHubHandler serves "sign in with GitHub". The callback answers with the
// same body as password login, so clients store the token the same way.
type GitHubHandler struct {
	github   GitHubExchanger
	accounts GitHubAccounts
	logger   *slog.Logger
}

// NewGitHubHandler creates a GitHubHandler.
func NewGitHubHandler(github GitHubExchanger, accounts GitHubAccounts, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{github: github, accounts: accounts, logger: logger}
}

// HandleLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /api/users/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived HttpOnly cookie and into the
// GitHub URL. HandleCallback rejects a callback whose state differs, which
// proves this server started the flow.
func (h *GitHubHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth flow.
//
// HTTP: GET /api/users/github/callback?code=xxx&state=yyy
// RESPONSE: 200 {"id", "name", "email", "token"}
func (h *GitHubHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid OAuth state"})
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: user denied authorization", slog.String("error", errParam))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "GitHub authorization was denied"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "GitHub authentication failed"})
		return
	}

	result, err := h.accounts.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result.Session())
}
