package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/notifydo/internal/apperror"
	"github.com/sakif/notifydo/internal/auth"
	"github.com/sakif/notifydo/internal/model"
	"github.com/sakif/notifydo/internal/service"
)

// Accounts is the part of service.AuthService the user routes need.
type Accounts interface {
	Register(ctx context.Context, name, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
}

// UserHandler serves registration, login and the profile endpoint.
type UserHandler struct {
	accounts Accounts
	logger   *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(accounts Accounts, logger *slog.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/users
// REQUEST BODY: {"name": "Ada", "email": "ada@example.com", "password": "secret1"}
// RESPONSE: 201 {"id": "...", "name": "Ada", "email": "ada@example.com", "token": "..."}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result.Session())
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /api/users/login
// RESPONSE: 200 {"id", "name", "email", "token"}, or 401 for any bad credential.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result.Session())
}

// HandleProfile returns the caller's public fields.
//
// HTTP: GET /api/users/profile
// Auth: Required
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Not authorized, no token"))
		return
	}

	user, err := h.accounts.GetProfile(r.Context(), userID)
	if err != nil {
		h.logger.Warn("profile lookup failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Profile())
}
