// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/oops"
)

// Default pool sizing. Argon2id is CPU- and memory-bound by design, so the
// worker count bounds how many derivations run at once and the queue depth
// bounds how many may wait before submissions are rejected.
const (
	DefaultVerifierWorkers = 4
	DefaultVerifierQueue   = 32
)

// ErrVerifierBusy is returned (wrapped with code AUTH_VERIFIER_BUSY) when the
// pool's queue is full. Callers surface this as a retryable condition, never
// as a credential failure. It must stay a plain sentinel: an oops-typed
// sentinel matches every oops error under errors.Is, so callers could not
// tell saturation apart from hasher failures.
var ErrVerifierBusy = errors.New("password verifier is saturated")

type kdfResult struct {
	match bool
	hash  string
	err   error
}

type kdfJob struct {
	run  func() kdfResult
	done chan kdfResult
}

// VerifierPool runs password hashing and verification on a fixed set of
// worker goroutines so a burst of login attempts cannot monopolize the
// goroutines serving requests. Submissions past the queue limit fail fast
// with ErrVerifierBusy; callers block only on their own job's completion.
type VerifierPool struct {
	hasher PasswordHasher
	jobs   chan kdfJob

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewVerifierPool creates a pool with the given worker count and queue depth.
// Zero or negative values fall back to the defaults.
func NewVerifierPool(hasher PasswordHasher, workers, queueDepth int) (*VerifierPool, error) {
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if workers <= 0 {
		workers = DefaultVerifierWorkers
	}
	if queueDepth <= 0 {
		queueDepth = DefaultVerifierQueue
	}

	p := &VerifierPool{
		hasher: hasher,
		jobs:   make(chan kdfJob, queueDepth),
	}

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}

	return p, nil
}

func (p *VerifierPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job.done <- job.run()
	}
}

// submit enqueues fn without blocking; if the queue is full the job is
// rejected immediately. The caller then waits for completion or cancellation.
func (p *VerifierPool) submit(ctx context.Context, fn func() kdfResult) (kdfResult, error) {
	job := kdfJob{run: fn, done: make(chan kdfResult, 1)}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return kdfResult{}, oops.Code("AUTH_VERIFIER_CLOSED").Errorf("verifier pool is closed")
	}
	select {
	case p.jobs <- job:
		p.mu.RUnlock()
	default:
		p.mu.RUnlock()
		return kdfResult{}, oops.Code("AUTH_VERIFIER_BUSY").Wrap(ErrVerifierBusy)
	}

	select {
	case res := <-job.done:
		return res, nil
	case <-ctx.Done():
		// The worker still finishes the job; its buffered done channel
		// lets it move on without a receiver.
		return kdfResult{}, oops.Code("AUTH_VERIFY_CANCELED").Wrap(ctx.Err())
	}
}

// Verify checks password against encodedHash on a pool worker.
func (p *VerifierPool) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	res, err := p.submit(ctx, func() kdfResult {
		match, verifyErr := p.hasher.Verify(password, encodedHash)
		return kdfResult{match: match, err: verifyErr}
	})
	if err != nil {
		return false, err
	}
	return res.match, res.err
}

// Hash derives an argon2id hash of password on a pool worker.
func (p *VerifierPool) Hash(ctx context.Context, password string) (string, error) {
	res, err := p.submit(ctx, func() kdfResult {
		hash, hashErr := p.hasher.Hash(password)
		return kdfResult{hash: hash, err: hashErr}
	})
	if err != nil {
		return "", err
	}
	return res.hash, res.err
}

// Close stops accepting work and waits for in-flight jobs to finish.
// Safe to call more than once.
func (p *VerifierPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}
