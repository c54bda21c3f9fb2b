// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dbdock/dbdock/internal/auth"
	"github.com/dbdock/dbdock/internal/auth/mocks"
	"github.com/dbdock/dbdock/pkg/errutil"
)

// blockingHasher parks Verify and Hash calls until released so tests can
// hold pool workers busy deterministically.
type blockingHasher struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingHasher() *blockingHasher {
	return &blockingHasher{
		started: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
}

func (h *blockingHasher) Hash(string) (string, error) {
	h.started <- struct{}{}
	<-h.release
	return "$argon2id$fake", nil
}

func (h *blockingHasher) Verify(string, string) (bool, error) {
	h.started <- struct{}{}
	<-h.release
	return true, nil
}

func TestNewVerifierPool(t *testing.T) {
	t.Run("requires hasher", func(t *testing.T) {
		_, err := auth.NewVerifierPool(nil, 1, 1)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_DEPENDENCY")
	})

	t.Run("defaults sizing for non-positive values", func(t *testing.T) {
		hasher := mocks.NewMockPasswordHasher(t)
		pool, err := auth.NewVerifierPool(hasher, 0, -1)
		require.NoError(t, err)
		pool.Close()
	})
}

func TestVerifierPoolVerify(t *testing.T) {
	t.Run("delegates to hasher", func(t *testing.T) {
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Verify", "pw", "$argon2id$stored").Return(true, nil)

		pool, err := auth.NewVerifierPool(hasher, 1, 1)
		require.NoError(t, err)
		defer pool.Close()

		ok, err := pool.Verify(t.Context(), "pw", "$argon2id$stored")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("propagates hasher errors", func(t *testing.T) {
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Verify", "pw", "garbage").Return(false, assert.AnError)

		pool, err := auth.NewVerifierPool(hasher, 1, 1)
		require.NoError(t, err)
		defer pool.Close()

		_, err = pool.Verify(t.Context(), "pw", "garbage")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("hasher errors do not read as saturation", func(t *testing.T) {
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Verify", "pw", "not-a-phc-string").
			Return(false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format"))

		pool, err := auth.NewVerifierPool(hasher, 1, 1)
		require.NoError(t, err)
		defer pool.Close()

		_, err = pool.Verify(t.Context(), "pw", "not-a-phc-string")
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
		assert.NotErrorIs(t, err, auth.ErrVerifierBusy)
	})

	t.Run("end to end with real hasher", func(t *testing.T) {
		pool, err := auth.NewVerifierPool(auth.NewArgon2idHasher(), 2, 4)
		require.NoError(t, err)
		defer pool.Close()

		hash, err := pool.Hash(t.Context(), "hunter2")
		require.NoError(t, err)

		ok, err := pool.Verify(t.Context(), "hunter2", hash)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = pool.Verify(t.Context(), "hunter3", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestVerifierPoolBackpressure(t *testing.T) {
	defer goleak.VerifyNone(t)

	hasher := newBlockingHasher()
	pool, err := auth.NewVerifierPool(hasher, 1, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup

	// First submission occupies the single worker.
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, verifyErr := pool.Verify(context.Background(), "pw", "hash")
		assert.NoError(t, verifyErr)
	}()
	<-hasher.started

	// The next submission fills the queue slot and is abandoned via its
	// timeout; with worker and queue both occupied every further
	// submission must be rejected immediately.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, queuedErr := pool.Verify(ctx, "pw", "hash")
	errutil.AssertErrorCode(t, queuedErr, "AUTH_VERIFY_CANCELED")

	_, busyErr := pool.Verify(context.Background(), "pw", "hash")
	assert.ErrorIs(t, busyErr, auth.ErrVerifierBusy)
	errutil.AssertErrorCode(t, busyErr, "AUTH_VERIFIER_BUSY")

	close(hasher.release)
	wg.Wait()
	pool.Close()
}

func TestVerifierPoolCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	hasher := newBlockingHasher()
	pool, err := auth.NewVerifierPool(hasher, 1, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, verifyErr := pool.Verify(ctx, "pw", "hash")
		done <- verifyErr
	}()

	<-hasher.started
	cancel()

	select {
	case verifyErr := <-done:
		errutil.AssertErrorCode(t, verifyErr, "AUTH_VERIFY_CANCELED")
		assert.ErrorIs(t, verifyErr, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("canceled verification did not return")
	}

	// The worker is still parked in the abandoned job; release it so
	// Close can drain.
	close(hasher.release)
	pool.Close()
}

func TestVerifierPoolClose(t *testing.T) {
	t.Run("rejects work after close", func(t *testing.T) {
		hasher := mocks.NewMockPasswordHasher(t)
		pool, err := auth.NewVerifierPool(hasher, 1, 1)
		require.NoError(t, err)

		pool.Close()

		_, err = pool.Verify(t.Context(), "pw", "hash")
		errutil.AssertErrorCode(t, err, "AUTH_VERIFIER_CLOSED")

		_, err = pool.Hash(t.Context(), "pw")
		errutil.AssertErrorCode(t, err, "AUTH_VERIFIER_CLOSED")
	})

	t.Run("close is idempotent", func(t *testing.T) {
		hasher := mocks.NewMockPasswordHasher(t)
		pool, err := auth.NewVerifierPool(hasher, 2, 2)
		require.NoError(t, err)

		pool.Close()
		pool.Close()
	})

	t.Run("waits for in-flight jobs", func(t *testing.T) {
		hasher := mocks.NewMockPasswordHasher(t)
		verifying := make(chan struct{})
		hasher.On("Verify", "pw", "hash").
			Run(func(mock.Arguments) { <-verifying }).
			Return(true, nil)

		pool, err := auth.NewVerifierPool(hasher, 1, 1)
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			ok, verifyErr := pool.Verify(context.Background(), "pw", "hash")
			assert.NoError(t, verifyErr)
			assert.True(t, ok)
			close(done)
		}()

		// Let the worker pick up the job, then close concurrently.
		require.Eventually(t, func() bool {
			select {
			case verifying <- struct{}{}:
				return true
			default:
				return false
			}
		}, 5*time.Second, time.Millisecond)

		pool.Close()
		<-done
	})
}
