package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
)

// UsersRepo keeps accounts in process. The email check and the insert share one
// lock, so concurrent registrations of the same address cannot both succeed.
type UsersRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[string]user.User // {"email": user}
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	u, ok := r.items[email]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	if u.ProfilePhoto == "" {
		u.ProfilePhoto = user.DefaultProfilePhoto
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[u.Email]; exists {
		return user.User{}, user.ErrEmailTaken
	}

	r.nextID++
	u.ID = r.nextID
	r.items[u.Email] = u

	return u, nil
}

// Ping lets the memory store stand in for the pool in readiness checks.
func (r *UsersRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}
