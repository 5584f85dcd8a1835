package queue

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// TokenPool implements spec.md §4.4's token-based concurrency system: one
// "implicit" token belongs to the scheduler itself and is never placed in
// the pool, so a jobs=N budget hands out N-1 explicit tokens that each
// running compiler process must acquire before it may internally
// parallelize.
type TokenPool struct {
	sem *semaphore.Weighted // nil when jobs == 1: no explicit token ever needed
}

// NewTokenPool builds a pool sized for jobs total concurrency. jobs must be
// >= 1. At jobs == 1 there are zero explicit tokens to contend over: the
// lone running process simply uses the scheduler's own implicit token, so
// Acquire/Release become no-ops rather than blocking on an empty pool.
func NewTokenPool(jobs int) *TokenPool {
	explicit := int64(jobs - 1)
	if explicit <= 0 {
		return &TokenPool{}
	}
	return &TokenPool{sem: semaphore.NewWeighted(explicit)}
}

// Acquire blocks until a token is available or ctx is canceled.
func (t *TokenPool) Acquire(ctx context.Context) error {
	if t.sem == nil {
		return nil
	}
	return t.sem.Acquire(ctx, 1)
}

// Release returns a token to the pool.
func (t *TokenPool) Release() {
	if t.sem == nil {
		return
	}
	t.sem.Release(1)
}
