package user

import (
	"context"

	"github.com/mkrupp/homecase-users/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// GetUserByID retrieves a user by its storage id.
	// Returns the user and true if found, or nil and false if no row matches.
	// Returns an error only if the lookup itself fails.
	GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error)

	// CreateUser persists a new user and returns it with the id assigned by storage.
	// Returns ErrUserCreationFailed if the write fails.
	CreateUser(ctx context.Context, username, email string) (*domain.User, error)

	// Ping checks that the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
