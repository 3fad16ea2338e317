package usersvc

import (
	"context"
	"fmt"

	"github.com/mkrupp/homecase-users/internal/domain"
	"github.com/mkrupp/homecase-users/internal/infra/logging"
	"github.com/mkrupp/homecase-users/internal/repo/user"
)

// Service is the application port the inbound transports call into.
type Service interface {
	// GetUserByID returns the user and true if found, or nil and false if not.
	GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error)

	// CreateUser validates and persists a new user.
	CreateUser(ctx context.Context, username, email string) (*domain.User, error)

	// Ping checks that the service can reach its storage.
	Ping(ctx context.Context) error
}

// UserService validates user input and delegates persistence to a user.Repository.
type UserService struct {
	UserRepo user.Repository
	Log      logging.Logger
}

var _ Service = (*UserService)(nil)

// NewUserService creates a new UserService backed by a repository from the given factory.
// Returns an error if the repository cannot be created.
func NewUserService(repoFactory user.RepositoryFactory) (*UserService, error) {
	userRepo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &UserService{
		UserRepo: userRepo,
		Log:      logging.GetLogger("svc.usersvc.user_service"),
	}, nil
}

// GetUserByID returns the user with the given id.
// A missing user is reported as (nil, false, nil).
func (s *UserService) GetUserByID(ctx context.Context, id int64) (_ *domain.User, ok bool, err error) {
	log := s.Log.With(logging.Group("user", "id", id))

	defer func() {
		switch {
		case err != nil:
			log.ErrorContext(ctx, "get user failed", "error", err)
		case !ok:
			log.DebugContext(ctx, "user not found")
		default:
			log.DebugContext(ctx, "user fetched")
		}
	}()

	u, ok, err := s.UserRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	return u, ok, nil
}

// CreateUser validates the candidate and stores it.
// Returns a *domain.ValidationError (matching domain.ErrInvalidUser) if validation fails,
// in which case the repository is not called. Storage failures match domain.ErrUserCreationFailed.
func (s *UserService) CreateUser(ctx context.Context, username, email string) (_ *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "username", username, "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user created")
		}
	}()

	candidate := domain.NewUser(username, email)

	if violations := domain.ValidateUser(candidate); len(violations) > 0 {
		return nil, &domain.ValidationError{Violations: violations}
	}

	created, err := s.UserRepo.CreateUser(ctx, candidate.Username, candidate.Email)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	log = s.Log.With(logging.Group("user", "id", created.ID, "username", username, "email", email))

	return created, nil
}

// Ping reports whether the underlying storage is reachable.
func (s *UserService) Ping(ctx context.Context) error {
	if err := s.UserRepo.Ping(ctx); err != nil {
		return fmt.Errorf("ping user repo: %w", err)
	}

	return nil
}

// Close releases resources held by the service, such as database connections.
func (s *UserService) Close() error {
	if err := s.UserRepo.Close(); err != nil {
		return fmt.Errorf("close user repo: %w", err)
	}

	return nil
}
