package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"modernc.org/sqlite"

	"github.com/mkrupp/homecase-users/internal/domain"
	"github.com/mkrupp/homecase-users/internal/infra/logging"
)

// SQLiteUserRepositoryConfig holds configuration for the SQLite user repository.
type SQLiteUserRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DB_PATH" envDefault:"db_sqlite/database.sqlite"`
	// BusyTimeout is how long in milliseconds a connection waits on a locked database
	BusyTimeout int `env:"DB_BUSY_TIMEOUT" envDefault:"5000"`
}

// SQLiteUserRepository implements Repository using SQLite as the storage backend.
// It holds no connection between calls: every operation opens the database,
// runs its statement and closes it again. Concurrent writers are serialized by
// SQLite's own locking, bounded by the busy timeout.
type SQLiteUserRepository struct {
	dsn string
	log logging.Logger
}

var _ Repository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepositoryFactory creates a factory function that returns a new SQLiteUserRepository.
// The factory function implements the RepositoryFactory type.
func SQLiteUserRepositoryFactory(cfg SQLiteUserRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteUserRepository(context.Background(), cfg)
	}
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository with the given configuration.
// It creates the database file and its directory if needed and ensures the schema exists.
func NewSQLiteUserRepository(ctx context.Context, cfg SQLiteUserRepositoryConfig) (*SQLiteUserRepository, error) {
	log := logging.GetLogger("repo.user.sqlite_user_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	repo := &SQLiteUserRepository{
		dsn: cfg.DatabasePath + "?_pragma=busy_timeout(" + strconv.Itoa(cfg.BusyTimeout) + ")",
		log: log,
	}

	db, err := repo.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := initializeDB(ctx, db); err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	log.DebugContext(ctx, "user repository ready")

	return repo, nil
}

func initializeDB(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT    NOT NULL,
			email    TEXT    NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

func (r *SQLiteUserRepository) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", r.dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// GetUserByID implements Repository.GetUserByID using SQLite.
func (r *SQLiteUserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	db, err := r.open(ctx)
	if err != nil {
		return nil, false, err
	}
	defer db.Close()

	var user domain.User

	err = db.QueryRowContext(ctx,
		"SELECT id, username, email FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Username, &user.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query user: %w", err)
	}

	return &user, true, nil
}

// CreateUser implements Repository.CreateUser using SQLite.
// Write failures are logged here and returned joined with domain.ErrUserCreationFailed.
func (r *SQLiteUserRepository) CreateUser(ctx context.Context, username, email string) (_ *domain.User, err error) {
	defer func() {
		if err == nil {
			return
		}

		attrs := []any{"error", err}

		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			attrs = append(attrs, "code", liteErr.Code())
		}

		r.log.ErrorContext(ctx, "create user failed", attrs...)

		err = errors.Join(domain.ErrUserCreationFailed, err)
	}()

	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	result, err := db.ExecContext(ctx,
		"INSERT INTO users (username, email) VALUES (?, ?)",
		username,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &domain.User{
		ID:       id,
		Username: username,
		Email:    email,
	}, nil
}

// Ping implements Repository.Ping by opening and pinging the database.
func (r *SQLiteUserRepository) Ping(ctx context.Context) error {
	db, err := r.open(ctx)
	if err != nil {
		return err
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

// Close implements Repository.Close. No connection outlives a call, so there is nothing to release.
func (r *SQLiteUserRepository) Close() error {
	return nil
}
