// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dbdock/dbdock/pkg/errutil"
)

type createUserPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleCreateUser registers an account. On a fresh install the route is
// open so the first (root) account can be created; once any account exists
// it requires an authenticated session like the rest of the user routes.
func (rt *Router) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	hasAny, err := rt.users.HasAny(r.Context())
	if err != nil {
		errutil.LogError(rt.logger, "user count failed", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if hasAny {
		rt.requireAuth(rt.createUser)(w, r)
		return
	}
	rt.createUser(w, r)
}

func (rt *Router) createUser(w http.ResponseWriter, r *http.Request) {
	var payload createUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "malformed JSON body", err.Error())
		return
	}

	user, err := rt.users.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, rt.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserDTO(user))
}

func (rt *Router) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := rt.users.List(r.Context())
	if err != nil {
		writeServiceError(w, rt.logger, err)
		return
	}

	dtos := make([]userDTO, 0, len(list))
	for _, user := range list {
		dtos = append(dtos, newUserDTO(user))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (rt *Router) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "user ID must be an integer")
		return
	}

	user, err := rt.users.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserDTO(user))
}

func (rt *Router) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "user ID must be an integer")
		return
	}

	user, err := rt.users.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserDTO(user))
}
