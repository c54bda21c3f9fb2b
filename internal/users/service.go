// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

// Package users implements account management on top of the auth domain:
// registration, lookup, listing and deletion. Password hashing is delegated
// to the shared verifier pool so registration bursts are bounded the same
// way login bursts are.
package users

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/dbdock/dbdock/internal/auth"
)

// MinPasswordLength is the minimum accepted password length in bytes.
const MinPasswordLength = 8

// Service provides user account operations.
type Service struct {
	users    auth.UserRepository
	verifier *auth.VerifierPool
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(users auth.UserRepository, verifier *auth.VerifierPool, logger *slog.Logger) (*Service, error) {
	return newService(users, verifier, logger, time.Now)
}

func newService(users auth.UserRepository, verifier *auth.VerifierPool, logger *slog.Logger, now func() time.Time) (*Service, error) {
	if users == nil {
		return nil, oops.Code("USERS_INVALID_DEPENDENCY").Errorf("users repository is required")
	}
	if verifier == nil {
		return nil, oops.Code("USERS_INVALID_DEPENDENCY").Errorf("verifier pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, verifier: verifier, logger: logger, now: now}, nil
}

// Register creates a new account. The email is normalized before storage so
// lookups at login time are case-insensitive. A duplicate email surfaces as
// auth.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, name, email, password string) (*auth.User, error) {
	if name == "" {
		return nil, oops.Code("USER_INVALID_NAME").Errorf("name cannot be empty")
	}

	email = auth.NormalizeEmail(email)
	if err := auth.ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, oops.Code("USER_PASSWORD_TOO_SHORT").
			Errorf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := s.verifier.Hash(ctx, password)
	if err != nil {
		if errors.Is(err, auth.ErrVerifierBusy) {
			return nil, err
		}
		return nil, oops.Code("USER_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &auth.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return nil, err
		}
		return nil, oops.Code("USER_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// HasAny reports whether at least one account exists. The HTTP layer uses
// this to keep registration open only until the first account is created;
// after that, creating accounts requires an authenticated session.
func (s *Service) HasAny(ctx context.Context) (bool, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, oops.Code("USER_COUNT_FAILED").
			With("operation", "count users").
			Wrap(err)
	}
	return count > 0, nil
}

// Get retrieves a user by ID.
func (s *Service) Get(ctx context.Context, id int64) (*auth.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err //nolint:wrapcheck // repository errors already carry codes
	}
	return user, nil
}

// List returns all accounts ordered by ID.
func (s *Service) List(ctx context.Context) ([]*auth.User, error) {
	list, err := s.users.List(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck // repository errors already carry codes
	}
	return list, nil
}

// Delete removes an account. Sessions owned by the account are left in
// place; resolution returns them without a user and the request gate
// rejects them.
func (s *Service) Delete(ctx context.Context, id int64) (*auth.User, error) {
	user, err := s.users.Delete(ctx, id)
	if err != nil {
		return nil, err //nolint:wrapcheck // repository errors already carry codes
	}
	s.logger.Info("user deleted", "user_id", user.ID, "email", user.Email)
	return user, nil
}
