// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// SessionDuration is the lifetime of a newly created session.
const SessionDuration = 720 * time.Hour

// SessionState classifies a session for auditing. Only the validity
// predicate gates authorization; the state is never persisted.
type SessionState string

// Session states. Revoked wins over Expired when both apply.
const (
	SessionActive  SessionState = "active"
	SessionExpired SessionState = "expired"
	SessionRevoked SessionState = "revoked"
)

// Session represents one authenticated login. The token doubles as primary
// key and bearer credential; it is generated from a cryptographically secure
// random source and never reused.
type Session struct {
	Token     uuid.UUID
	UserID    int64
	CreatedAt time.Time
	ExpireAt  time.Time
	RevokedAt *time.Time // nil while active
}

// NewSession creates a validated Session for userID starting at now.
func NewSession(userID int64, now time.Time, duration time.Duration) (*Session, error) {
	if userID <= 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID must be positive")
	}
	if duration <= 0 {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("session duration must be positive")
	}

	token, err := uuid.NewRandom()
	if err != nil {
		return nil, oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "uuid.NewRandom").
			Wrap(err)
	}

	return &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpireAt:  now.Add(duration),
	}, nil
}

// ParseToken parses the canonical 36-character hyphenated token encoding.
// The failure is reported with its own code so callers can distinguish a
// malformed credential from an unknown one internally; client-visible
// messages must not make that distinction.
func ParseToken(s string) (uuid.UUID, error) {
	if len(s) != 36 {
		return uuid.UUID{}, oops.Code("SESSION_TOKEN_MALFORMED").
			Errorf("token must be 36 characters, got %d", len(s))
	}
	token, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, oops.Code("SESSION_TOKEN_MALFORMED").Wrap(err)
	}
	return token, nil
}

// IsValidAt reports whether the session authorizes requests at time t.
// This predicate is the single source of truth: not revoked and not expired.
func (s *Session) IsValidAt(t time.Time) bool {
	return s.RevokedAt == nil && t.Before(s.ExpireAt)
}

// IsValid reports validity against the wall clock.
func (s *Session) IsValid() bool {
	return s.IsValidAt(time.Now())
}

// StateAt classifies the session at time t for auditing.
func (s *Session) StateAt(t time.Time) SessionState {
	switch {
	case s.RevokedAt != nil:
		return SessionRevoked
	case !t.Before(s.ExpireAt):
		return SessionExpired
	default:
		return SessionActive
	}
}

// SessionWithUser pairs a session with its owning user. User may be nil if
// the owner was deleted while the session row remained; callers must treat
// that as an invalid credential, not dereference it.
type SessionWithUser struct {
	Session *Session
	User    *User
}

// SessionRepository manages session persistence. Exactly the operations the
// session lifecycle needs; user persistence lives in UserRepository.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetWithUser retrieves a session joined with its owning user.
	// Returns ErrNotFound if no session has the given token. The user side
	// of the result is nil when the owner row is gone.
	GetWithUser(ctx context.Context, token uuid.UUID) (*SessionWithUser, error)

	// Revoke marks the session revoked at now using a single atomic
	// conditional write and returns the resulting row. Revocation is
	// idempotent: an already-revoked session keeps its original timestamp.
	// Returns ErrNotFound if no session has the given token.
	Revoke(ctx context.Context, token uuid.UUID, now time.Time) (*Session, error)
}
