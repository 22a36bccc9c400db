package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const usersEmailUniq = "users_email_key"

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.find_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, email, password, first_name, last_name, profile_photo, created_at
         FROM users
         WHERE email = $1`,
			email,
		).Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.FirstName,
			&u.LastName,
			&u.ProfilePhoto,
			&u.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {

			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// Create relies on the unique constraint on email: the conflict check and the
// insert are one statement, so concurrent sign ups cannot both land.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (created user.User, err error) {
	if u.ProfilePhoto == "" {
		u.ProfilePhoto = user.DefaultProfilePhoto
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	// timestamptz keeps microseconds
	u.CreatedAt = u.CreatedAt.Truncate(time.Microsecond)

	created = u

	err = r.observe("users.create", func() error {
		return r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password, first_name, last_name, profile_photo, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.ProfilePhoto, u.CreatedAt,
		).Scan(&created.ID)
	})

	if err != nil {
		// no row back means the conflict clause swallowed the insert
		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrEmailTaken
			return user.User{}, err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == usersEmailUniq {
			err = user.ErrEmailTaken
			return user.User{}, err
		}

		return user.User{}, err
	}

	return created, nil
}

// Ping backs the /readyz check.
func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
