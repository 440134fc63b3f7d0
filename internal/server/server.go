// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware and
// routes, and decides:
//   - which URL patterns map to which handler functions
//   - which middleware runs on which routes
//   - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go:  config.Load → repository.Store (sqlite or postgres) → server.New
//	New:      Store.Users()  → AuthService → UserHandler, GitHubHandler, RequireAuth
//	          Store.Tasks()  → TaskService → TaskHandler
//
// This is the "composition root" pattern: every dependency is wired here,
// not scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/notifydo/internal/auth"
	"github.com/sakif/notifydo/internal/config"
	"github.com/sakif/notifydo/internal/handler"
	"github.com/sakif/notifydo/internal/middleware"
	"github.com/sakif/notifydo/internal/repository"
	"github.com/sakif/notifydo/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. It is closed in Start after shutdown so
// pending writes are flushed and the SQLite file lock is released.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	metrics *middleware.Metrics
}

// New builds the service graph on top of store and registers every route.
func New(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		metrics: middleware.NewMetrics(),
	}

	authService := service.NewAuthService(store.Users(), tokens, auth.NewPasswordService(cfg.BcryptCost), logger)
	taskService := service.NewTaskService(store.Tasks(), logger)

	s.setupRoutes(authService, taskService)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                            → banner (plain text)
// GET    /healthz                     → store ping
// GET    /metrics                     → Prometheus scrape endpoint
// POST   /api/users                   → register
// POST   /api/users/login             → login
// GET    /api/users/profile           → current user          [auth]
// GET    /api/users/github/login      → GitHub redirect       [if configured]
// GET    /api/users/github/callback   → GitHub code exchange  [if configured]
// GET    /api/tasks                   → list own tasks        [auth]
// POST   /api/tasks                   → create                [auth]
// GET    /api/tasks/{id}              → get                   [auth]
// PUT    /api/tasks/{id}              → partial update        [auth]
// DELETE /api/tasks/{id}              → delete                [auth]
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can tag every line with it. Recoverer
// sits inside Logger so a panic is still logged as a 500.
func (s *Server) setupRoutes(authService *service.AuthService, taskService *service.TaskService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handler.NewHealthHandler(s.store, s.logger)
	s.router.Get("/", health.HandleRoot)
	s.router.Get("/healthz", health.HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	users := handler.NewUserHandler(authService, s.logger)
	tasks := handler.NewTaskHandler(taskService, s.logger)
	requireAuth := auth.RequireAuth(authService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", users.HandleRegister)
			r.Post("/login", users.HandleLogin)
			r.With(requireAuth).Get("/profile", users.HandleProfile)

			if s.config.GitHubEnabled() {
				provider := auth.NewGitHubProvider(
					s.config.GitHubClientID,
					s.config.GitHubClientSecret,
					s.config.GitHubCallbackURL,
				)
				github := handler.NewGitHubHandler(provider, authService, s.logger)
				r.Get("/github/login", github.HandleLogin)
				r.Get("/github/callback", github.HandleCallback)
			}
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", tasks.HandleList)
			r.Post("/", tasks.HandleCreate)
			r.Get("/{id}", tasks.HandleGet)
			r.Put("/{id}", tasks.HandleUpdate)
			r.Delete("/{id}", tasks.HandleDelete)
		})
	})

	if !s.config.GitHubEnabled() {
		s.logger.Info("GitHub sign-in disabled (GITHUB_CLIENT_ID not set)")
	}
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Close the store
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
