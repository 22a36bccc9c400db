package cache

import (
	"context"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// Users fronts a store with a short-lived cache of found accounts. Accounts are
// never edited, so a hit cannot be stale; misses are not cached so a fresh
// registration is visible immediately.
type Users struct {
	next  UserStore
	cache *Cache[user.User]
}

func NewUsers(next UserStore, ttl time.Duration) *Users {
	return &Users{next: next, cache: New[user.User](ttl)}
}

func (u *Users) FindByEmail(ctx context.Context, email string) (user.User, error) {
	if found, ok := u.cache.Get(email); ok {
		return found, nil
	}

	found, err := u.next.FindByEmail(ctx, email)

	if err != nil {
		return user.User{}, err
	}

	u.cache.Set(email, found)

	return found, nil
}

func (u *Users) Create(ctx context.Context, in user.User) (user.User, error) {
	created, err := u.next.Create(ctx, in)

	if err != nil {
		return user.User{}, err
	}

	u.cache.Set(created.Email, created)

	return created, nil
}
