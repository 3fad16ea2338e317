package usersvc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-users/internal/domain"
	"github.com/mkrupp/homecase-users/internal/infra/logging"
	"github.com/mkrupp/homecase-users/internal/repo/user"
	"github.com/mkrupp/homecase-users/internal/svc/usersvc"
)

var ErrRepoError = errors.New("repository error")

// mockUserRepository implements user.Repository for testing.
type mockUserRepository struct {
	users   map[int64]*domain.User
	err     error
	creates int
	m       sync.Mutex
}

var _ user.Repository = (*mockUserRepository)(nil)

func newMockUserRepo() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[int64]*domain.User),
	}
}

func (m *mockUserRepository) GetUserByID(_ context.Context, id int64) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	u, ok := m.users[id]
	if !ok {
		return nil, false, nil
	}

	cp := *u

	return &cp, true, nil
}

func (m *mockUserRepository) CreateUser(_ context.Context, username, email string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.creates++

	if m.err != nil {
		return nil, errors.Join(domain.ErrUserCreationFailed, m.err)
	}

	u := &domain.User{
		ID:       int64(len(m.users) + 1),
		Username: username,
		Email:    email,
	}
	m.users[u.ID] = u

	cp := *u

	return &cp, nil
}

func (m *mockUserRepository) Ping(context.Context) error {
	return m.err
}

func (m *mockUserRepository) Close() error {
	return nil
}

func setupTestService(t *testing.T) (*usersvc.UserService, *mockUserRepository) {
	t.Helper()

	repo := newMockUserRepo()

	return &usersvc.UserService{
		UserRepo: repo,
		Log:      logging.NewNopLogger(),
	}, repo
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		username    string
		email       string
		repoErr     error
		wantErr     error
		wantCreates int
	}{
		{
			name:        "successful creation",
			username:    "alice",
			email:       "alice@example.com",
			wantCreates: 1,
		},
		{
			name:        "empty username",
			username:    "",
			email:       "alice@example.com",
			wantErr:     domain.ErrInvalidUser,
			wantCreates: 0,
		},
		{
			name:        "malformed email",
			username:    "alice",
			email:       "not-an-email",
			wantErr:     domain.ErrInvalidUser,
			wantCreates: 0,
		},
		{
			name:        "repository error",
			username:    "alice",
			email:       "alice@example.com",
			repoErr:     ErrRepoError,
			wantErr:     domain.ErrUserCreationFailed,
			wantCreates: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, repo := setupTestService(t)
			repo.err = tt.repoErr

			got, err := svc.CreateUser(context.Background(), tt.username, tt.email)

			assert.Equal(t, tt.wantCreates, repo.creates)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, &domain.User{ID: 1, Username: tt.username, Email: tt.email}, got)
		})
	}
}

func TestUserService_CreateUser_LogsUserGroupOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	svc, _ := setupTestService(t)
	svc.Log = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := svc.CreateUser(context.Background(), "alice", "alice@example.com")
	require.NoError(t, err)

	line := strings.TrimSpace(buf.String())
	assert.Equal(t, 1, strings.Count(line, `"user":`), line)

	var entry struct {
		Msg  string `json:"msg"`
		User struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))

	assert.Equal(t, "user created", entry.Msg)
	assert.Equal(t, int64(1), entry.User.ID)
	assert.Equal(t, "alice", entry.User.Username)
	assert.Equal(t, "alice@example.com", entry.User.Email)
}

func TestUserService_CreateUser_Violations(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)

	_, err := svc.CreateUser(context.Background(), "", "nope")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 2)
}

func TestUserService_GetUserByID(t *testing.T) {
	t.Parallel()

	svc, repo := setupTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)

	got, ok, err := svc.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created, got)

	got, ok, err = svc.GetUserByID(ctx, created.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	repo.err = ErrRepoError

	_, ok, err = svc.GetUserByID(ctx, created.ID)
	require.ErrorIs(t, err, ErrRepoError)
	assert.False(t, ok)
}

func TestNewUserService(t *testing.T) {
	t.Parallel()

	repo := newMockUserRepo()

	svc, err := usersvc.NewUserService(func() (user.Repository, error) { return repo, nil })
	require.NoError(t, err)
	require.NoError(t, svc.Ping(context.Background()))
	require.NoError(t, svc.Close())

	_, err = usersvc.NewUserService(func() (user.Repository, error) { return nil, ErrRepoError })
	require.ErrorIs(t, err, ErrRepoError)
}
