package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

func TestAcquireRelease(t *testing.T) {
	p := New(2, 1)

	release, err := p.Acquire(context.Background(), "regina")
	require.NoError(t, err)
	release()

	// The slot is reusable after release.
	release, err = p.Acquire(context.Background(), "regina")
	require.NoError(t, err)
	release()
}

func TestPerHostCap(t *testing.T) {
	p := New(10, 1)

	release, err := p.Acquire(context.Background(), "regina")
	require.NoError(t, err)

	// Same host is at capacity.
	_, ok := p.TryAcquire("regina")
	assert.False(t, ok)

	// A different host still has room.
	other, ok := p.TryAcquire("saskatoon")
	require.True(t, ok)
	other()

	release()
	again, ok := p.TryAcquire("regina")
	require.True(t, ok)
	again()
}

func TestGlobalCap(t *testing.T) {
	p := New(2, 2)

	r1, err := p.Acquire(context.Background(), "a")
	require.NoError(t, err)
	r2, err := p.Acquire(context.Background(), "b")
	require.NoError(t, err)

	// Global capacity exhausted even though host "c" is idle.
	_, ok := p.TryAcquire("c")
	assert.False(t, ok)

	r1()
	r3, ok := p.TryAcquire("c")
	require.True(t, ok)
	r3()
	r2()
}

func TestAcquireRespectsContext(t *testing.T) {
	p := New(1, 1)

	release, err := p.Acquire(context.Background(), "regina")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = p.Acquire(ctx, "regina")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBlockedHostDoesNotHoldGlobalSlot(t *testing.T) {
	// One global slot, one per-host slot. A waiter on a saturated host must
	// not pin the global slot while it queues.
	p := New(1, 1)

	busyRelease, err := p.Acquire(context.Background(), "busy")
	require.NoError(t, err)

	// Queue a second request for the saturated host.
	var wg sync.WaitGroup
	wg.Add(1)
	started := make(chan struct{})
	go func() {
		defer wg.Done()
		close(started)
		release, err := p.Acquire(context.Background(), "busy")
		if err == nil {
			release()
		}
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	// The waiter sits in the per-host queue; freeing the holder lets the
	// global slot cycle through both.
	busyRelease()
	wg.Wait()

	release, ok := p.TryAcquire("idle")
	require.True(t, ok)
	release()
}

func TestConcurrentAcquire(t *testing.T) {
	p := New(4, 2)

	var mu sync.Mutex
	inFlight, peak := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := []string{"a", "b", "c", "d"}[n%4]
			release, err := p.Acquire(context.Background(), domain.LibrarySystemId(id))
			if err != nil {
				return
			}
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			release()
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, 4, "global cap")
}
