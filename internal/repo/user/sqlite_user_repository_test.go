package user_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-users/internal/domain"

	. "github.com/mkrupp/homecase-users/internal/repo/user"
)

func setupSQLiteTestRepo(t *testing.T) (*SQLiteUserRepository, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "db_sqlite", "database.sqlite")

	repo, err := NewSQLiteUserRepository(context.Background(), SQLiteUserRepositoryConfig{
		DatabasePath: path,
		BusyTimeout:  5000,
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = repo.Close() })

	return repo, path
}

func TestSQLiteUserRepository_CreatesDatabaseFile(t *testing.T) {
	t.Parallel()

	_, path := setupSQLiteTestRepo(t)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestSQLiteUserRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	repo, _ := setupSQLiteTestRepo(t)
	ctx := context.Background()

	alice, err := repo.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.Positive(t, alice.ID)
	assert.Equal(t, "alice", alice.Username)
	assert.Equal(t, "alice@example.com", alice.Email)

	bob, err := repo.CreateUser(ctx, "bob", "bob@example.com")
	require.NoError(t, err)
	assert.Greater(t, bob.ID, alice.ID)

	got, ok, err := repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, alice, got)

	again, ok, err := repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, got, again)
}

func TestSQLiteUserRepository_DuplicateUsernamesAllowed(t *testing.T) {
	t.Parallel()

	repo, _ := setupSQLiteTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)

	second, err := repo.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSQLiteUserRepository_GetUserByID_NotFound(t *testing.T) {
	t.Parallel()

	repo, _ := setupSQLiteTestRepo(t)

	for _, id := range []int64{1, 42, 1 << 40} {
		got, ok, err := repo.GetUserByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	}
}

func TestSQLiteUserRepository_StorageFailure(t *testing.T) {
	t.Parallel()

	repo, path := setupSQLiteTestRepo(t)
	ctx := context.Background()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	_, err = db.Exec("DROP TABLE users")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = repo.CreateUser(ctx, "alice", "alice@example.com")
	require.ErrorIs(t, err, domain.ErrUserCreationFailed)

	_, ok, err := repo.GetUserByID(ctx, 1)
	require.Error(t, err)
	assert.False(t, ok)
	assert.NotErrorIs(t, err, domain.ErrUserCreationFailed)
}

func TestSQLiteUserRepository_CanceledContext(t *testing.T) {
	t.Parallel()

	repo, _ := setupSQLiteTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.CreateUser(ctx, "alice", "alice@example.com")
	require.ErrorIs(t, err, domain.ErrUserCreationFailed)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSQLiteUserRepository_ConcurrentCreates(t *testing.T) {
	t.Parallel()

	repo, _ := setupSQLiteTestRepo(t)
	ctx := context.Background()

	const n = 16

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]struct{}, n)
	)

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			u, err := repo.CreateUser(ctx, "user", "user@example.com")
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			ids[u.ID] = struct{}{}
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Len(t, ids, n)
}

func TestSQLiteUserRepository_Ping(t *testing.T) {
	t.Parallel()

	repo, _ := setupSQLiteTestRepo(t)

	require.NoError(t, repo.Ping(context.Background()))
}

func TestSQLiteUserRepositoryFactory(t *testing.T) {
	t.Parallel()

	factory := SQLiteUserRepositoryFactory(SQLiteUserRepositoryConfig{
		DatabasePath: filepath.Join(t.TempDir(), "factory.sqlite"),
		BusyTimeout:  1000,
	})

	repo, err := factory()
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}
