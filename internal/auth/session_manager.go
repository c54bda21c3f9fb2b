// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// SessionManager owns session lifetime policy. It mints tokens, resolves
// bearer credentials to sessions, and revokes them. Validity is evaluated by
// callers via Session.IsValid on every request; Resolve never filters
// expired or revoked rows so callers can distinguish "no such session" from
// "session no longer valid".
type SessionManager struct {
	sessions SessionRepository
	duration time.Duration
	now      func() time.Time
}

// NewSessionManager creates a SessionManager with the default 720h policy.
func NewSessionManager(sessions SessionRepository) (*SessionManager, error) {
	return NewSessionManagerWithPolicy(sessions, SessionDuration, time.Now)
}

// NewSessionManagerWithPolicy creates a SessionManager with an explicit
// duration and clock. The clock injection exists for tests; production code
// uses NewSessionManager.
func NewSessionManagerWithPolicy(sessions SessionRepository, duration time.Duration, now func() time.Time) (*SessionManager, error) {
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("sessions repository is required")
	}
	if duration <= 0 {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("session duration must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &SessionManager{sessions: sessions, duration: duration, now: now}, nil
}

// Create mints a session for userID and persists it. Storage failures are
// wrapped without token detail so they can be surfaced as a generic internal
// error.
func (m *SessionManager) Create(ctx context.Context, userID int64) (*Session, error) {
	session, err := NewSession(userID, m.now(), m.duration)
	if err != nil {
		return nil, err
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("user_id", userID).
			Wrap(err)
	}

	return session, nil
}

// Resolve parses tokenString and looks up the session joined with its owner.
// A parse failure carries SESSION_TOKEN_MALFORMED, an unknown token
// SESSION_NOT_FOUND; both must collapse to the same client-visible shape.
func (m *SessionManager) Resolve(ctx context.Context, tokenString string) (*SessionWithUser, error) {
	token, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	result, err := m.sessions.GetWithUser(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_NOT_FOUND").Wrap(err)
		}
		return nil, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "get session with user").
			Wrap(err)
	}

	return result, nil
}

// IsValid evaluates the validity predicate against the manager's clock.
func (m *SessionManager) IsValid(session *Session) bool {
	return session.IsValidAt(m.now())
}

// State classifies session against the manager's clock, for auditing.
func (m *SessionManager) State(session *Session) SessionState {
	return session.StateAt(m.now())
}

// Revoke parses tokenString and marks the session revoked. The underlying
// write is a single conditional update, so two racing revocations cannot
// observe inconsistent state; the second call succeeds and keeps the first
// revocation timestamp. An unknown token is SESSION_NOT_FOUND.
func (m *SessionManager) Revoke(ctx context.Context, tokenString string) (*Session, error) {
	token, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := m.sessions.Revoke(ctx, token, m.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_NOT_FOUND").Wrap(err)
		}
		return nil, oops.Code("SESSION_REVOKE_FAILED").
			With("operation", "revoke session").
			Wrap(err)
	}

	return session, nil
}
