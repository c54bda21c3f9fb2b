// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when registering a user with an email that is
// already in use.
var ErrEmailTaken = errors.New("email already taken")
