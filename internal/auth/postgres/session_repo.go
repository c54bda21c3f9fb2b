// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/dbdock/dbdock/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool poolIface
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool poolIface) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (token, user_id, created_at, expire_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		session.Token,
		session.UserID,
		session.CreatedAt,
		session.ExpireAt,
		session.RevokedAt,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("user_id", session.UserID).
			Wrap(err)
	}
	return nil
}

// GetWithUser retrieves a session joined with its owning user. The join is a
// LEFT JOIN on purpose: a session whose owner was deleted still resolves,
// with a nil user, so the caller can reject it explicitly instead of
// treating it as an unknown token.
func (r *SessionRepository) GetWithUser(ctx context.Context, token uuid.UUID) (*auth.SessionWithUser, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT s.token, s.user_id, s.created_at, s.expire_at, s.revoked_at,
		       u.id, u.name, u.email, u.password_hash, u.created_at
		FROM sessions s
		LEFT JOIN users u ON u.id = s.user_id
		WHERE s.token = $1
	`, token)

	var (
		session       auth.Session
		userID        *int64
		userName      *string
		userEmail     *string
		userHash      *string
		userCreatedAt *time.Time
	)

	err := row.Scan(
		&session.Token,
		&session.UserID,
		&session.CreatedAt,
		&session.ExpireAt,
		&session.RevokedAt,
		&userID,
		&userName,
		&userEmail,
		&userHash,
		&userCreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session with user").
			Wrap(err)
	}

	result := &auth.SessionWithUser{Session: &session}
	if userID != nil {
		result.User = &auth.User{
			ID:           *userID,
			Name:         *userName,
			Email:        *userEmail,
			PasswordHash: *userHash,
			CreatedAt:    *userCreatedAt,
		}
	}

	return result, nil
}

// Revoke marks the session revoked at now. A single conditional write keeps
// the transition race-safe and one-way: COALESCE preserves the original
// revocation timestamp when two revocations race or the call is repeated.
func (r *SessionRepository) Revoke(ctx context.Context, token uuid.UUID, now time.Time) (*auth.Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sessions
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE token = $1
		RETURNING token, user_id, created_at, expire_at, revoked_at
	`, token, now)

	var session auth.Session
	err := row.Scan(
		&session.Token,
		&session.UserID,
		&session.CreatedAt,
		&session.ExpireAt,
		&session.RevokedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_REVOKE_FAILED").
			With("operation", "revoke session").
			Wrap(err)
	}

	return &session, nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
