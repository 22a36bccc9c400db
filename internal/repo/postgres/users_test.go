package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/geocoder89/accounthub/internal/db"
	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUsersRepo(t *testing.T) (*postgres.UsersRepo, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn, 8)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))

	_, err = pool.Exec(ctx, `TRUNCATE users RESTART IDENTITY`)
	require.NoError(t, err)

	return postgres.NewUsersRepo(pool, observability.NewProm(prometheus.NewRegistry())), pool
}

func newAlice() user.User {
	return user.NewFromRegisterRequest(user.RegisterRequest{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
	}, "$2a$10$hash", "")
}

func TestUsersRepo_CreateAndFind(t *testing.T) {
	repo, _ := setupUsersRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newAlice())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Alice", found.FirstName)
	assert.Equal(t, "$2a$10$hash", found.PasswordHash)
	assert.Equal(t, user.DefaultProfilePhoto, found.ProfilePhoto)
	assert.True(t, created.CreatedAt.Equal(found.CreatedAt))
}

func TestUsersRepo_FindMissing(t *testing.T) {
	repo, _ := setupUsersRepo(t)

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_DuplicateEmail(t *testing.T) {
	repo, pool := setupUsersRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newAlice())
	require.NoError(t, err)

	dup := newAlice()
	dup.FirstName = "Mallory"

	_, err = repo.Create(ctx, dup)
	require.ErrorIs(t, err, user.ErrEmailTaken)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUsersRepo_ConcurrentCreate(t *testing.T) {
	repo, _ := setupUsersRepo(t)
	ctx := context.Background()

	const n = 8
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, newAlice())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, user.ErrEmailTaken)
	}

	assert.Equal(t, 1, ok)
}
