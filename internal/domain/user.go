package domain

import (
	"context"
	"strings"
	"time"
)

// User is an account that owns notes.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	GoogleID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a new User instance with a normalized email.
func NewUser(email string) *User {
	now := time.Now()
	return &User{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
}
