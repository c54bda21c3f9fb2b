// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

// Package httpapi exposes the dbdock REST API: login and session lifecycle,
// user management and database provisioning.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/dbdock/dbdock/internal/auth"
	"github.com/dbdock/dbdock/internal/observability"
	"github.com/dbdock/dbdock/internal/provision"
	"github.com/dbdock/dbdock/internal/users"
)

// Router wires handlers, middleware and services into one http.Handler.
type Router struct {
	mux         *http.ServeMux
	authService *auth.Service
	sessions    *auth.SessionManager
	users       *users.Service
	provisioner *provision.Service
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// RouterOptions carries the services the router depends on. Provisioner may
// be nil, in which case the provisioning routes are not registered.
type RouterOptions struct {
	AuthService *auth.Service
	Sessions    *auth.SessionManager
	Users       *users.Service
	Provisioner *provision.Service
	Logger      *slog.Logger
	Metrics     *observability.Metrics
}

// NewRouter creates the API handler with the full middleware chain.
func NewRouter(opts RouterOptions) (http.Handler, error) {
	if opts.AuthService == nil {
		return nil, oops.Code("HTTP_INVALID_DEPENDENCY").Errorf("auth service is required")
	}
	if opts.Sessions == nil {
		return nil, oops.Code("HTTP_INVALID_DEPENDENCY").Errorf("session manager is required")
	}
	if opts.Users == nil {
		return nil, oops.Code("HTTP_INVALID_DEPENDENCY").Errorf("users service is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	rt := &Router{
		mux:         http.NewServeMux(),
		authService: opts.AuthService,
		sessions:    opts.Sessions,
		users:       opts.Users,
		provisioner: opts.Provisioner,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	rt.registerRoutes()

	// Innermost first: recovery wraps the mux, then logging, then request
	// IDs so the logger always sees one.
	var handler http.Handler = rt.mux
	handler = Recovery(opts.Logger)(handler)
	handler = Logger(opts.Logger)(handler)
	if opts.Metrics != nil {
		handler = Metrics(opts.Metrics)(handler)
	}
	handler = RequestID(handler)

	return handler, nil
}

func (rt *Router) registerRoutes() {
	rt.mux.HandleFunc("GET /{$}", rt.handleIndex)

	rt.mux.HandleFunc("POST /login", rt.handleLogin)
	rt.mux.HandleFunc("POST /logout", rt.handleLogout)
	rt.mux.HandleFunc("GET /me", rt.requireAuth(rt.handleMe))

	// Registration is open until the first account exists; handleCreateUser
	// enforces the gate itself after that.
	rt.mux.HandleFunc("POST /users", rt.handleCreateUser)
	rt.mux.HandleFunc("GET /users", rt.requireAuth(rt.handleListUsers))
	rt.mux.HandleFunc("GET /users/{id}", rt.requireAuth(rt.handleGetUser))
	rt.mux.HandleFunc("DELETE /users/{id}", rt.requireAuth(rt.handleDeleteUser))

	if rt.provisioner != nil {
		rt.mux.HandleFunc("POST /provision/mariadb", rt.requireAuth(rt.handleProvisionMariaDB))
		rt.mux.HandleFunc("GET /provision/mariadb/{name}", rt.requireAuth(rt.handleProvisionStatus))
		rt.mux.HandleFunc("DELETE /provision/mariadb/{name}", rt.requireAuth(rt.handleProvisionRemove))
	}
}

func (rt *Router) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // greeting write error is acceptable
	w.Write([]byte("Hello, World!\n"))
}
