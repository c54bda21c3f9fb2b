// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dbdock/dbdock/internal/provision"
)

type provisionMariaDBPayload struct {
	Name         string `json:"name"`
	RootPassword string `json:"root_password"`
	Database     string `json:"database,omitempty"`
	User         string `json:"user,omitempty"`
	Password     string `json:"password,omitempty"`
	Port         uint16 `json:"port,omitempty"`
}

type containerDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type containerStatusDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	State   string `json:"state"`
	Running bool   `json:"running"`
}

func (rt *Router) handleProvisionMariaDB(w http.ResponseWriter, r *http.Request) {
	var payload provisionMariaDBPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "malformed JSON body", err.Error())
		return
	}

	container, err := rt.provisioner.CreateMariaDB(r.Context(), provision.MariaDBRequest{
		Name:         payload.Name,
		RootPassword: payload.RootPassword,
		Database:     payload.Database,
		User:         payload.User,
		Password:     payload.Password,
		Port:         payload.Port,
	})
	if err != nil {
		writeServiceError(w, rt.logger, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.ContainersTotal.Inc()
	}
	writeJSON(w, http.StatusCreated, containerDTO{ID: container.ID, Name: container.Name})
}

func (rt *Router) handleProvisionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := rt.provisioner.Status(r.Context(), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, rt.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, containerStatusDTO{
		ID:      status.ID,
		Name:    status.Name,
		Image:   status.Image,
		State:   status.State,
		Running: status.Running,
	})
}

func (rt *Router) handleProvisionRemove(w http.ResponseWriter, r *http.Request) {
	if err := rt.provisioner.Remove(r.Context(), r.PathValue("name")); err != nil {
		writeServiceError(w, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "container removed"})
}
