// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/samber/oops"
)

// User represents a registered account. PasswordHash is opaque outside the
// auth package and must never be serialized to clients.
type User struct {
	ID           int64
	Name         string
	Email        string // stored lowercase, unique
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeEmail returns the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a plausible, normalized address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if email != NormalizeEmail(email) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email must be normalized (lowercase, trimmed)")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return oops.Code("AUTH_INVALID_EMAIL").Wrap(err)
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and fills in the assigned ID.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by normalized email.
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns all users ordered by ID.
	List(ctx context.Context) ([]*User, error)

	// Delete removes a user. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id int64) (*User, error)

	// Count returns the number of registered users.
	Count(ctx context.Context) (int64, error)
}
