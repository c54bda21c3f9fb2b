// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Service provides authentication operations.
type Service struct {
	users    UserRepository
	sessions *SessionManager
	verifier *VerifierPool
	logger   *slog.Logger
}

// NewAuthService creates a new Service.
func NewAuthService(users UserRepository, sessions *SessionManager, verifier *VerifierPool) (*Service, error) {
	return NewAuthServiceWithLogger(users, sessions, verifier, slog.Default())
}

// NewAuthServiceWithLogger creates a new Service with an explicit logger.
func NewAuthServiceWithLogger(users UserRepository, sessions *SessionManager, verifier *VerifierPool, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("session manager is required")
	}
	if verifier == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("verifier pool is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	return &Service{users: users, sessions: sessions, verifier: verifier, logger: logger}, nil
}

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Login authenticates a user by email and password and mints a session.
// Email is expected to be normalized at the payload boundary. Unknown users
// and wrong passwords return the same AUTH_INVALID_CREDENTIALS error; a
// malformed stored hash is an internal fault, logged with the account ID and
// never presented as a credential failure.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	// Verify against a dummy hash when the user is unknown so response
	// time does not reveal account existence.
	targetHash := dummyPasswordHash
	userExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	valid, verifyErr := s.verifier.Verify(ctx, password, targetHash)
	if verifyErr != nil {
		if errors.Is(verifyErr, ErrVerifierBusy) {
			return nil, verifyErr
		}
		if !userExists {
			// Dummy-hash verification only fails on programmer error;
			// the caller still just sees invalid credentials.
			return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
		}
		// A stored hash that cannot be parsed is a data-integrity
		// problem, not a user error.
		s.logger.Error("stored password hash is corrupt",
			"user_id", user.ID,
			"error", verifyErr,
		)
		return nil, oops.Code("AUTH_HASH_CORRUPT").
			With("user_id", user.ID).
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	return session, nil
}
