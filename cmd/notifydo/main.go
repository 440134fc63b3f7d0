// Package main implements the notifydo terminal client.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/notifydo/internal/client/api"
	"github.com/sakif/notifydo/internal/client/cache"
	"github.com/sakif/notifydo/internal/client/config"
	"github.com/sakif/notifydo/internal/client/session"
	"github.com/sakif/notifydo/internal/client/store"
)

func main() {
	err := rootCmd.Execute()
	closeApp()
	if err != nil {
		var done reportedError
		if !errors.As(err, &done) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "notifydo",
	Short:             "NotifyDo - a small task manager in your terminal",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupApp,
}

var (
	rootConfigPath string
	rootServer     string
	rootStatePath  string
	rootVerbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "config file (default ~/.config/notifydo/config.toml)")
	rootCmd.PersistentFlags().StringVar(&rootServer, "server", "", "API base URL, e.g. http://localhost:8080/api")
	rootCmd.PersistentFlags().StringVar(&rootStatePath, "state", "", "path of the local state database")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "log requests and state changes to stderr")
}

// app is what every command works with once setupApp has run.
type app struct {
	cfg     *config.Config
	store   *store.Store
	client  *api.Client
	session *session.Session
	logger  *slog.Logger

	// restoreErr is set when a stored token could not be resumed for a
	// reason other than the server rejecting it.
	restoreErr error
}

var current *app

func setupApp(cmd *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if rootVerbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	path := rootConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if rootServer != "" {
		cfg.Server = rootServer
	}
	if rootStatePath != "" {
		cfg.StatePath = rootStatePath
	}
	logger.Debug("config loaded", slog.String("path", path), slog.String("server", cfg.Server))

	st, err := store.Open(cfg.StatePath)
	if err != nil {
		return err
	}
	client, err := api.New(cfg.Server, st, api.WithOnUnauthorized(func() {
		logger.Debug("server rejected the stored token; cleared it")
	}))
	if err != nil {
		st.Close()
		return err
	}

	a := &app{
		cfg:    cfg,
		store:  st,
		client: client,
		logger: logger,
	}
	a.session = session.New(client, st, cache.New(), printNotifier{w: os.Stderr}, logger)
	current = a

	// Resume a stored session. A rejected token just leaves the user signed out.
	if err := a.session.Restore(contextOf(cmd)); err != nil && !api.IsUnauthorized(err) {
		logger.Debug("restore failed", slog.String("error", err.Error()))
		a.restoreErr = err
	}
	return nil
}

func closeApp() {
	if current != nil && current.store != nil {
		current.store.Close()
	}
}

// signedIn returns the app once a session is active.
func signedIn() (*app, error) {
	if current.session.State() == session.Authenticated {
		return current, nil
	}
	if current.restoreErr != nil {
		return nil, fmt.Errorf("could not resume session: %w", current.restoreErr)
	}
	return nil, errors.New("not signed in; run `notifydo login` or `notifydo register`")
}

// reportedError marks an error the session has already shown as a
// notification, so main does not print it twice.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
