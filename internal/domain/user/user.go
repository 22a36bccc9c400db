package user

import (
	"errors"
	"strings"
	"time"
)

// DefaultProfilePhoto is used when a registration does not carry a photo.
const DefaultProfilePhoto = "/static/images/profile_photo.jpg"

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, so a Cyrillic
// password reaches it at 36 characters.
const MaxPasswordBytes = 72

var (
	ErrNotFound = errors.New("user not found")
	// email is the login identity, only one account per address.
	ErrEmailTaken      = errors.New("email already registered")
	ErrPasswordTooLong = errors.New("password longer than 72 bytes")
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	ProfilePhoto string    `json:"profilePhoto"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Email     string `json:"email" form:"email" binding:"required,email,max=120"`
	Password  string `json:"password" form:"password" binding:"required,maxbytes=72"`
	FirstName string `json:"first_name" form:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" form:"last_name" binding:"required,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// NormalizeEmail is applied before every lookup and insert so that the
// unique key does not depend on casing or stray whitespace.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// A factory to build a User from a registration; the id is assigned by the store.
func NewFromRegisterRequest(req RegisterRequest, passwordHash, photo string) User {
	if photo == "" {
		photo = DefaultProfilePhoto
	}

	return User{
		Email:        NormalizeEmail(req.Email),
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		ProfilePhoto: photo,
		CreatedAt:    time.Now().UTC(),
	}
}
