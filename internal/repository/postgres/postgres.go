// Package postgres implements the repository interfaces on PostgreSQL.
// The server uses it instead of SQLite when DATABASE_URL is set.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/sakif/notifydo/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ repository.Store = (*Store)(nil)

// Store owns a pgx connection pool shared by the user and task repositories.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, applies pending migrations and returns a ready store.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres: empty database dsn")
	}
	if log == nil {
		log = slog.Default()
	}

	if err := migrate(ctx, dsn, log); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Users returns the credential store.
func (s *Store) Users() repository.UserRepository {
	return &UserRepo{pool: s.pool}
}

// Tasks returns the task store.
func (s *Store) Tasks() repository.TaskRepository {
	return &TaskRepo{pool: s.pool}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// migrate runs the embedded goose migrations over a short-lived
// database/sql handle, since goose does not speak pgxpool.
func migrate(ctx context.Context, dsn string, log *slog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("postgres: open sql connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres: configure goose: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	log.Info("applying migrations")
	if err := goose.UpContext(runCtx, db, "migrations"); err != nil {
		return fmt.Errorf("postgres: apply migrations: %w", err)
	}
	log.Info("migrations applied")
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
