package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Expiry(t *testing.T) {
	c := New[int](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", 1)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)

	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_DefaultTTL(t *testing.T) {
	c := New[string](0)
	assert.Equal(t, 5*time.Second, c.ttl)
}

type countingStore struct {
	finds int
	users map[string]user.User
}

func (s *countingStore) FindByEmail(_ context.Context, email string) (user.User, error) {
	s.finds++
	u, ok := s.users[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *countingStore) Create(_ context.Context, u user.User) (user.User, error) {
	if _, ok := s.users[u.Email]; ok {
		return user.User{}, user.ErrEmailTaken
	}
	u.ID = int64(len(s.users) + 1)
	s.users[u.Email] = u
	return u, nil
}

func TestUsers_CachesHitsNotMisses(t *testing.T) {
	next := &countingStore{users: map[string]user.User{}}
	store := NewUsers(next, time.Minute)
	ctx := context.Background()

	_, err := store.FindByEmail(ctx, "alice@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)

	created, err := store.Create(ctx, user.User{Email: "alice@example.com", FirstName: "Alice"})
	require.NoError(t, err)

	found, err := store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created, found)

	// the miss and nothing else reached the backing store
	assert.Equal(t, 1, next.finds)

	_, err = store.Create(ctx, user.User{Email: "alice@example.com"})
	assert.True(t, errors.Is(err, user.ErrEmailTaken))
}
