// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

// Package auth provides authentication primitives for dbdock.
//
// # Domain Types
//
// Domain types (User, Session) should be created using their respective
// constructors:
//   - NewSession - creates a Session with a fresh token and validated expiry
//   - NormalizeEmail - canonical form for user email lookups
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - credential verification and login
//   - SessionManager - session lifetime policy: create, resolve, revoke
//   - VerifierPool - runs the deliberately slow KDF off the request path
//
// Services are created with New* constructors that validate dependencies.
package auth
