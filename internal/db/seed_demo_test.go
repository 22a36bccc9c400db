package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/accounthub/internal/db"
	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/repo/memory"
	"github.com/geocoder89/accounthub/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func demoAccount() db.DemoAccount {
	return db.DemoAccount{
		Email:     "User@Example.com",
		Password:  "password123",
		FirstName: "Ivan",
		LastName:  "Ivanov",
	}
}

func TestEnsureDemoUser_Idempotent(t *testing.T) {
	store := memory.NewUsersRepo()
	hasher := security.NewHasher(bcrypt.MinCost)
	ctx := context.Background()

	created, err := db.EnsureDemoUser(ctx, store, hasher, demoAccount())
	if err != nil {
		t.Fatalf("EnsureDemoUser() error = %v", err)
	}
	if !created {
		t.Fatalf("expected first call to create the demo user")
	}

	first, err := store.FindByEmail(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}

	if first.FirstName != "Ivan" || first.LastName != "Ivanov" {
		t.Fatalf("unexpected names: %+v", first)
	}
	if first.ProfilePhoto != user.DefaultProfilePhoto {
		t.Fatalf("got photo %q, want default", first.ProfilePhoto)
	}
	if !hasher.VerifyPassword(first.PasswordHash, "password123") {
		t.Fatalf("demo password does not verify")
	}

	created, err = db.EnsureDemoUser(ctx, store, hasher, demoAccount())
	if err != nil {
		t.Fatalf("second EnsureDemoUser() error = %v", err)
	}
	if created {
		t.Fatalf("second call must not create")
	}

	again, err := store.FindByEmail(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if again != first {
		t.Fatalf("demo user changed on reseed")
	}
}

func TestEnsureDemoUser_Disabled(t *testing.T) {
	store := memory.NewUsersRepo()

	created, err := db.EnsureDemoUser(context.Background(), store, security.NewHasher(bcrypt.MinCost), db.DemoAccount{})
	if err != nil || created {
		t.Fatalf("got created=%v err=%v, want false nil", created, err)
	}
}

type brokenStore struct{}

func (brokenStore) FindByEmail(context.Context, string) (user.User, error) {
	return user.User{}, errors.New("db down")
}

func (brokenStore) Create(context.Context, user.User) (user.User, error) {
	return user.User{}, errors.New("db down")
}

func TestEnsureDemoUser_StoreError(t *testing.T) {
	_, err := db.EnsureDemoUser(context.Background(), brokenStore{}, security.NewHasher(bcrypt.MinCost), demoAccount())
	if err == nil {
		t.Fatalf("expected store error to propagate")
	}
}
