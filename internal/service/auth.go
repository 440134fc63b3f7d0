// Package service holds the business rules of NotifyDo.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces ownership, orchestrates
//	Repository (data layer)  → reads/writes the store
//
// Services take repository interfaces, never a concrete store, so tests
// inject in-memory fakes and main picks SQLite or Postgres.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/sakif/notifydo/internal/apperror"
	"github.com/sakif/notifydo/internal/auth"
	"github.com/sakif/notifydo/internal/model"
	"github.com/sakif/notifydo/internal/repository"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 6

// errInvalidCredentials is the single answer for every failed login, so a
// caller cannot tell an unknown email from a wrong password.
const errInvalidCredentials = "Invalid email or password"

// AuthService issues sessions: it registers users, checks passwords and
// verifies tokens.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Session is the wire form of the result: public user fields plus token.
func (r *AuthResult) Session() model.Session {
	return model.Session{Profile: r.User.Profile(), Token: r.Token}
}

// Register creates an account and signs the new user in.
//
// Name is trimmed and required; email must parse as an address and is
// lower-cased; password must be 6 to 72 bytes. An email that is already
// registered is a Conflict, reported by the store's unique constraint.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "User already exists",
				Field:   "email",
			}
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	return s.issue(user)
}

// Login checks an email/password pair and signs the user in.
//
// Every failure returns the same Unauthorized error. For an unknown email
// a bcrypt comparison still runs against a throwaway hash, so response
// time does not reveal whether the account exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to look up user", slog.String("error", err.Error()))
			return nil, fmt.Errorf("service/auth: looking up user: %w", err)
		}
		_ = s.passwords.Verify(s.throwawayHash(), password)
		s.logger.Warn("login failed")
		return nil, apperror.Unauthorized(errInvalidCredentials)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash unusable",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.Warn("login failed")
		return nil, apperror.Unauthorized(errInvalidCredentials)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issue(user)
}

// Verify returns the user ID bound to token. It satisfies auth.Verifier,
// so RequireAuth can call it directly.
func (s *AuthService) Verify(token string) (string, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return "", &apperror.AppError{Err: apperror.ErrUnauthorized, Message: "Not authorized, token failed"}
	}
	return userID, nil
}

// GetProfile returns the user behind an authenticated request.
// A token can outlive its user, so NotFound is possible here.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("Not authorized")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	return user, nil
}

// LoginWithGitHub signs in the NotifyDo account whose email matches the
// GitHub profile, creating one on first sign-in.
//
// A created account gets a random password nobody knows; the user can only
// sign in through GitHub until an out-of-band reset exists.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, errors.New("service/auth: GitHub user must not be nil")
	}

	email, err := normalizeEmail(ghUser.Email)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.createGitHubUser(ctx, ghUser.DisplayName(), email)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)

	return s.issue(user)
}

func (s *AuthService) createGitHubUser(ctx context.Context, name, email string) (*model.User, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("service/auth: generating password: %w", err)
	}

	hash, err := s.passwords.Hash(hex.EncodeToString(secret))
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/auth: creating GitHub user: %w", err)
		}
		// A concurrent callback for the same email created it first.
		existing, getErr := s.users.GetByEmail(ctx, email)
		if getErr != nil {
			return nil, fmt.Errorf("service/auth: looking up user after conflict: %w", getErr)
		}
		return existing, nil
	}

	s.logger.Info("user registered via GitHub", slog.String("userID", user.ID))
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// throwawayHash is a valid bcrypt hash at the service's cost, computed once.
func (s *AuthService) throwawayHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.passwords.Hash("notifydo-login-timing")
	})
	return s.dummyHash
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email is not a valid address")
	}
	return strings.ToLower(addr.Address), nil
}
