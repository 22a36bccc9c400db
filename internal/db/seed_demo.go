package db

import (
	"context"
	"errors"

	"github.com/geocoder89/accounthub/internal/domain/user"
)

type DemoAccount struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	ProfilePhoto string
}

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	HashPassword(plain string) (string, error)
}

// EnsureDemoUser creates the demo account once. Returns created=false when it already exists.
func EnsureDemoUser(ctx context.Context, store UserStore, hasher PasswordHasher, demo DemoAccount) (created bool, err error) {
	if demo.Email == "" || demo.Password == "" {
		return false, nil
	}

	email := user.NormalizeEmail(demo.Email)

	// check if the user exists

	_, err = store.FindByEmail(ctx, email)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.HashPassword(demo.Password)

	if err != nil {
		return false, err
	}

	u := user.NewFromRegisterRequest(user.RegisterRequest{
		Email:     email,
		FirstName: demo.FirstName,
		LastName:  demo.LastName,
	}, hash, demo.ProfilePhoto)

	_, err = store.Create(ctx, u)

	// another instance seeded between our lookup and insert
	if errors.Is(err, user.ErrEmailTaken) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
