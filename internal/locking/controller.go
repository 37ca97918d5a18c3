package locking

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
)

// ErrAcquireTimeout indicates a lock could not be acquired within the
// controller's bound.
var ErrAcquireTimeout = errors.New("account lock acquisition timed out")

const defaultAcquireTimeout = 5 * time.Second

// Controller hands out exclusive per-account locks. Single-account operations
// acquire one lock; multi-account operations acquire in ascending identifier
// order, which makes the lock order total and rules out circular wait.
// Acquisition is bounded; the optimistic version check at persist time is an
// independent safety net.
type Controller struct {
	mu      sync.Mutex
	locks   map[uuid.UUID]*accountLock
	timeout time.Duration
}

// accountLock is a one-slot semaphore with a reference count so entries for
// idle accounts can be reclaimed.
type accountLock struct {
	sem  chan struct{}
	refs int
}

// NewController creates a Controller with the given acquisition timeout.
// A non-positive timeout selects the default.
func NewController(timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = defaultAcquireTimeout
	}
	return &Controller{
		locks:   make(map[uuid.UUID]*accountLock),
		timeout: timeout,
	}
}

// Acquire takes the exclusive lock for the given account. It fails with
// ErrAcquireTimeout when the bound elapses, or the context's error when the
// context ends first.
func (c *Controller) Acquire(ctx context.Context, id uuid.UUID) error {
	l := c.ref(id)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		return nil
	case <-timer.C:
		c.unref(id)
		return ErrAcquireTimeout
	case <-ctx.Done():
		c.unref(id)
		return ctx.Err()
	}
}

// AcquirePair takes both locks in ascending identifier order, regardless of
// which account is logically the source. On failure of the second acquire the
// first lock is released before the error propagates.
func (c *Controller) AcquirePair(ctx context.Context, a, b uuid.UUID) error {
	first, second := orderPair(a, b)

	if err := c.Acquire(ctx, first); err != nil {
		return err
	}
	if err := c.Acquire(ctx, second); err != nil {
		c.Release(first)
		return err
	}
	return nil
}

// Release returns the account's lock. It must only be called after a
// successful Acquire for the same identifier.
func (c *Controller) Release(id uuid.UUID) {
	c.mu.Lock()
	l, ok := c.locks[id]
	c.mu.Unlock()
	if !ok {
		return
	}
	<-l.sem
	c.unref(id)
}

// ReleasePair releases both locks of a pair.
func (c *Controller) ReleasePair(a, b uuid.UUID) {
	first, second := orderPair(a, b)
	c.Release(second)
	c.Release(first)
}

func (c *Controller) ref(id uuid.UUID) *accountLock {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[id]
	if !ok {
		l = &accountLock{sem: make(chan struct{}, 1)}
		c.locks[id] = l
	}
	l.refs++
	return l
}

func (c *Controller) unref(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[id]
	if !ok {
		return
	}
	l.refs--
	if l.refs <= 0 {
		delete(c.locks, id)
	}
}

// orderPair sorts two identifiers by ascending raw byte value.
func orderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a.Bytes(), b.Bytes()) <= 0 {
		return a, b
	}
	return b, a
}
