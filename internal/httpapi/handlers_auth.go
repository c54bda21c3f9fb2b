// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/dbdock/dbdock/internal/auth"
	"github.com/dbdock/dbdock/internal/observability"
	"github.com/dbdock/dbdock/pkg/errutil"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionTokenDTO struct {
	Token string `json:"token"`
}

type userDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserDTO(user *auth.User) userDTO {
	return userDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// handleLogin exchanges credentials for a session token. Every credential
// failure, including unknown accounts, returns the same 401 body.
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "malformed JSON body", err.Error())
		return
	}
	if payload.Email == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	email := auth.NormalizeEmail(payload.Email)
	session, err := rt.authService.Login(r.Context(), email, payload.Password)
	if err != nil {
		rt.countLogin(loginOutcome(err))
		switch code(err) {
		case "AUTH_INVALID_CREDENTIALS":
			writeError(w, http.StatusUnauthorized, "invalid email or password")
		case "AUTH_VERIFIER_BUSY":
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "server is busy, retry shortly")
		default:
			errutil.LogError(rt.logger, "login failed", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	rt.countLogin(observability.LoginSuccess)
	writeJSON(w, http.StatusOK, sessionTokenDTO{Token: session.Token.String()})
}

// handleLogout revokes the bearer session. Revocation is idempotent, so
// repeating a logout with the same token succeeds again; only a token the
// store has never seen is a 404.
func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, reason := bearerToken(r)
	if reason != "" {
		rt.rejectUnauthorized(w, r, reason)
		return
	}

	revoked, err := rt.sessions.Revoke(r.Context(), token)
	if err != nil {
		switch code(err) {
		case "SESSION_TOKEN_MALFORMED":
			writeError(w, http.StatusBadRequest, "malformed session token")
		case "SESSION_NOT_FOUND":
			writeError(w, http.StatusNotFound, "session not found")
		default:
			errutil.LogError(rt.logger, "logout failed", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if rt.metrics != nil {
		rt.metrics.SessionsRevokedTotal.Inc()
	}
	writeJSON(w, http.StatusOK, sessionTokenDTO{Token: revoked.Token.String()})
}

// handleMe returns the account behind the current session.
func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	if identity == nil {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, newUserDTO(identity.User))
}

func (rt *Router) countLogin(outcome string) {
	if rt.metrics != nil {
		rt.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func loginOutcome(err error) string {
	switch {
	case code(err) == "AUTH_INVALID_CREDENTIALS":
		return observability.LoginFailure
	case errors.Is(err, auth.ErrVerifierBusy):
		return observability.LoginBusy
	default:
		return observability.LoginError
	}
}

// code extracts the oops error code, or "" for plain errors.
func code(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Code()
	}
	return ""
}
