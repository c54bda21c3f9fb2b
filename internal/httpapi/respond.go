// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/dbdock/dbdock/pkg/errutil"
)

// apiError is the error envelope returned for every failed request.
type apiError struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Status: status, Error: message})
}

func writeErrorDetails(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, apiError{Status: status, Error: message, Details: details})
}

// statusForCode maps internal error codes to HTTP statuses. Codes that would
// leak account or session existence are collapsed by the callers before
// reaching this table; anything unknown is an internal error.
var statusForCode = map[string]int{
	"AUTH_INVALID_CREDENTIALS":      http.StatusUnauthorized,
	"AUTH_INVALID_EMAIL":            http.StatusBadRequest,
	"AUTH_EMPTY_PASSWORD":           http.StatusBadRequest,
	"AUTH_VERIFIER_BUSY":            http.StatusServiceUnavailable,
	"SESSION_TOKEN_MALFORMED":       http.StatusBadRequest,
	"SESSION_NOT_FOUND":             http.StatusNotFound,
	"USER_NOT_FOUND":                http.StatusNotFound,
	"USER_EMAIL_TAKEN":              http.StatusBadRequest,
	"USER_INVALID_NAME":             http.StatusBadRequest,
	"USER_PASSWORD_TOO_SHORT":       http.StatusBadRequest,
	"PROVISION_INVALID_NAME":        http.StatusBadRequest,
	"PROVISION_INVALID_REQUEST":     http.StatusBadRequest,
	"PROVISION_CONTAINER_NOT_FOUND": http.StatusNotFound,
}

// writeServiceError translates a service error into the envelope. Client
// errors echo the service message; internal errors are logged in full and
// reduced to a generic message so nothing about storage or hashing leaks.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := ""
	if oopsErr, ok := oops.AsOops(err); ok {
		code = oopsErr.Code()
	}

	if status, known := statusForCode[code]; known {
		writeError(w, status, clientMessage(err))
		return
	}

	errutil.LogError(logger, "request failed", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// clientMessage extracts the outermost message without the wrapped cause
// chain, which may contain driver or hasher internals.
func clientMessage(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if msg := oopsErr.Error(); msg != "" {
			return msg
		}
	}
	return err.Error()
}
