// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dbdock/dbdock/internal/auth"
)

// Identity is the authenticated principal attached to a request after it
// passes the gate. Session and User are always non-nil.
type Identity struct {
	Session *auth.Session
	User    *auth.User
}

// IdentityFrom returns the identity attached by requireAuth, or nil for
// requests that did not pass through it.
func IdentityFrom(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey).(*Identity); ok {
		return id
	}
	return nil
}

const unauthorizedMessage = "invalid or expired session"

// unauthorized is the single rejection path of the gate. Every failure mode
// produces the same status and body so a caller probing with forged or
// stolen tokens learns nothing about why a credential was rejected.
func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, unauthorizedMessage)
}

// bearerToken extracts the credential from the Authorization header.
// The header must be ASCII and use the Bearer scheme. A non-empty reason
// names the failed check; it is for logs only, never for the client.
func bearerToken(r *http.Request) (token, reason string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}
	for i := 0; i < len(header); i++ {
		if header[i] > 127 {
			return "", "non-ASCII byte in authorization header"
		}
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", "authorization scheme is not Bearer"
	}
	if token == "" {
		return "", "empty bearer token"
	}
	return token, ""
}

// rejectUnauthorized records why the gate turned a request away, then writes
// the uniform 401. The cause never reaches the client.
func (rt *Router) rejectUnauthorized(w http.ResponseWriter, r *http.Request, reason string, attrs ...any) {
	args := append([]any{
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", GetRequestID(r.Context()),
	}, attrs...)
	rt.logger.Debug("request authentication rejected", args...)
	unauthorized(w)
}

// requireAuth gates a handler behind a valid session. The bearer token is
// resolved on every request; validity is re-evaluated against the clock
// each time, so an expired or revoked session is rejected immediately,
// and a session whose owner was deleted is rejected the same way.
func (rt *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, reason := bearerToken(r)
		if reason != "" {
			rt.rejectUnauthorized(w, r, reason)
			return
		}

		resolved, err := rt.sessions.Resolve(r.Context(), token)
		if err != nil {
			rt.rejectUnauthorized(w, r, "session not resolvable", "error", err)
			return
		}
		if !rt.sessions.IsValid(resolved.Session) {
			rt.rejectUnauthorized(w, r, "session not valid",
				"state", string(rt.sessions.State(resolved.Session)))
			return
		}
		if resolved.User == nil {
			// The owning account was deleted out from under the session.
			rt.rejectUnauthorized(w, r, "session has no linked user")
			return
		}

		identity := &Identity{Session: resolved.Session, User: resolved.User}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx))
	}
}
