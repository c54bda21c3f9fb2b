// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package httpapi_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dbdock/dbdock/internal/auth"
	"github.com/dbdock/dbdock/internal/auth/mocks"
	"github.com/dbdock/dbdock/internal/httpapi"
	"github.com/dbdock/dbdock/internal/provision"
	"github.com/dbdock/dbdock/internal/users"
)

// testNow is the fixed clock all handler tests run against.
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	handler     http.Handler
	userRepo    *mocks.MockUserRepository
	sessionRepo *mocks.MockSessionRepository
	hasher      *mocks.MockPasswordHasher
	backend     *fakeBackend
	logs        *bytes.Buffer
}

// fakeBackend is an in-memory provision.Backend.
type fakeBackend struct {
	mock.Mock
}

func (f *fakeBackend) CreateContainer(ctx context.Context, spec provision.ContainerSpec) (string, error) {
	args := f.Called(ctx, spec)
	return args.String(0), args.Error(1)
}

func (f *fakeBackend) ContainerStatus(ctx context.Context, nameOrID string) (*provision.ContainerStatus, error) {
	args := f.Called(ctx, nameOrID)
	if s := args.Get(0); s != nil {
		return s.(*provision.ContainerStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (f *fakeBackend) RemoveContainer(ctx context.Context, nameOrID string) error {
	return f.Called(ctx, nameOrID).Error(0)
}

func (f *fakeBackend) Close() error { return nil }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	userRepo := mocks.NewMockUserRepository(t)
	sessionRepo := mocks.NewMockSessionRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)

	pool, err := auth.NewVerifierPool(hasher, 1, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	sessions, err := auth.NewSessionManagerWithPolicy(sessionRepo, auth.SessionDuration, func() time.Time { return testNow })
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	authService, err := auth.NewAuthServiceWithLogger(userRepo, sessions, pool, logger)
	require.NoError(t, err)

	userService, err := users.NewService(userRepo, pool, logger)
	require.NoError(t, err)

	backend := &fakeBackend{}
	backend.Mock.Test(t)
	t.Cleanup(func() { backend.AssertExpectations(t) })

	provisioner, err := provision.NewService(backend, logger)
	require.NoError(t, err)

	handler, err := httpapi.NewRouter(httpapi.RouterOptions{
		AuthService: authService,
		Sessions:    sessions,
		Users:       userService,
		Provisioner: provisioner,
		Logger:      logger,
	})
	require.NoError(t, err)

	return &fixture{
		handler:     handler,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		backend:     backend,
		logs:        &logs,
	}
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// validSessionFor arranges the session repo to resolve token to a live
// session owned by user.
func (f *fixture) validSessionFor(token string, user *auth.User) {
	parsed, err := auth.ParseToken(token)
	if err != nil {
		panic(err)
	}
	f.sessionRepo.On("GetWithUser", mock.Anything, parsed).Return(&auth.SessionWithUser{
		Session: &auth.Session{
			Token:     parsed,
			UserID:    user.ID,
			CreatedAt: testNow.Add(-time.Hour),
			ExpireAt:  testNow.Add(auth.SessionDuration),
		},
		User: user,
	}, nil)
}
