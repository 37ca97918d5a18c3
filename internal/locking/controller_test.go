package locking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
)

func TestController_AcquireRelease(t *testing.T) {
	controller := NewController(time.Second)
	id := uuid.Must(uuid.NewV4())

	assert.NoError(t, controller.Acquire(context.Background(), id))
	controller.Release(id)
	assert.NoError(t, controller.Acquire(context.Background(), id), "lock is reusable after release")
	controller.Release(id)
}

func TestController_SecondAcquireTimesOut(t *testing.T) {
	controller := NewController(50 * time.Millisecond)
	id := uuid.Must(uuid.NewV4())

	assert.NoError(t, controller.Acquire(context.Background(), id))
	defer controller.Release(id)

	err := controller.Acquire(context.Background(), id)
	assert.ErrorIs(t, err, ErrAcquireTimeout)
}

func TestController_ContextCancellation(t *testing.T) {
	controller := NewController(time.Minute)
	id := uuid.Must(uuid.NewV4())

	assert.NoError(t, controller.Acquire(context.Background(), id))
	defer controller.Release(id)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := controller.Acquire(ctx, id)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestController_DisjointAccountsDoNotBlock(t *testing.T) {
	controller := NewController(50 * time.Millisecond)
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())

	assert.NoError(t, controller.Acquire(context.Background(), a))
	assert.NoError(t, controller.Acquire(context.Background(), b))
	controller.Release(a)
	controller.Release(b)
}

func TestController_ExclusiveWhileHeld(t *testing.T) {
	controller := NewController(time.Second)
	id := uuid.Must(uuid.NewV4())

	assert.NoError(t, controller.Acquire(context.Background(), id))

	acquired := make(chan struct{})
	go func() {
		assert.NoError(t, controller.Acquire(context.Background(), id))
		close(acquired)
		controller.Release(id)
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while still held")
	case <-time.After(50 * time.Millisecond):
	}

	controller.Release(id)
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}

func TestController_PairAcquisitionIsDeadlockFree(t *testing.T) {
	controller := NewController(5 * time.Second)
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())

	const iterations = 100
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < iterations; i++ {
		wg.Add(1)
		first, second := a, b
		if i%2 == 1 {
			first, second = b, a
		}
		go func() {
			defer wg.Done()
			assert.NoError(t, controller.AcquirePair(context.Background(), first, second))
			controller.ReleasePair(first, second)
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("pair acquisitions did not complete: possible deadlock")
	}
}

func TestController_PairFailureReleasesFirstLock(t *testing.T) {
	controller := NewController(50 * time.Millisecond)
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())
	first, second := orderPair(a, b)

	// Holding the second lock makes AcquirePair fail on its second step.
	assert.NoError(t, controller.Acquire(context.Background(), second))

	err := controller.AcquirePair(context.Background(), a, b)
	assert.ErrorIs(t, err, ErrAcquireTimeout)

	// The first lock must be free again.
	assert.NoError(t, controller.Acquire(context.Background(), first))
	controller.Release(first)
	controller.Release(second)
}

func TestController_IdleEntriesAreReclaimed(t *testing.T) {
	controller := NewController(time.Second)
	id := uuid.Must(uuid.NewV4())

	assert.NoError(t, controller.Acquire(context.Background(), id))
	controller.Release(id)

	controller.mu.Lock()
	defer controller.mu.Unlock()
	assert.Empty(t, controller.locks, "released accounts leave no map entry behind")
}
