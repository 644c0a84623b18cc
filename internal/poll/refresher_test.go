package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitCalls(t *testing.T, calls <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d fetches", i, n)
		}
	}
}

func TestRefresherImmediateThenPerTick(t *testing.T) {
	calls := make(chan struct{}, 16)
	tick := NewManualTicker()
	r := New(func(context.Context) { calls <- struct{}{} }, time.Minute, WithTicker(tick.Factory()))

	r.Start(context.Background())
	waitCalls(t, calls, 1)
	assert.Equal(t, time.Minute, tick.Interval)

	for i := 0; i < 3; i++ {
		require.True(t, tick.Tick())
	}
	waitCalls(t, calls, 3)

	r.Stop()
	r.Wait()
	assert.Len(t, calls, 0, "ticks + 1 fetches in total")
}

func TestRefresherNoFetchAfterStop(t *testing.T) {
	var n atomic.Int32
	tick := NewManualTicker()
	r := New(func(context.Context) { n.Add(1) }, time.Second, WithTicker(tick.Factory()))

	r.Start(context.Background())
	r.Stop()
	r.Wait()
	before := n.Load()

	assert.False(t, tick.Tick(), "ticker is cleared on stop")
	assert.True(t, tick.IsStopped())
	assert.True(t, r.Stopped())

	r.Start(context.Background())
	r.Wait()
	assert.Equal(t, before, n.Load())
	assert.LessOrEqual(t, before, int32(1))
}

func TestRefresherStopRacingTicks(t *testing.T) {
	var n atomic.Int32
	tick := NewManualTicker()
	r := New(func(context.Context) {
		time.Sleep(time.Millisecond)
		n.Add(1)
	}, time.Second, WithTicker(tick.Factory()))
	r.Start(context.Background())

	ticked := make(chan int)
	go func() {
		count := 0
		for tick.Tick() {
			count++
		}
		ticked <- count
	}()
	time.Sleep(5 * time.Millisecond)
	r.Stop()
	count := <-ticked
	r.Wait()

	settled := n.Load()
	assert.LessOrEqual(t, settled, int32(count+1))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, settled, n.Load(), "no fetch ran after Stop and Wait returned")
}

func TestRefresherOverlappingFetches(t *testing.T) {
	release := make(chan struct{})
	var inFlight, peak atomic.Int32
	started := make(chan struct{}, 4)

	tick := NewManualTicker()
	r := New(func(context.Context) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		started <- struct{}{}
		<-release
		inFlight.Add(-1)
	}, time.Second, WithTicker(tick.Factory()))

	r.Start(context.Background())
	waitCalls(t, started, 1)
	require.True(t, tick.Tick())
	waitCalls(t, started, 1)

	assert.Equal(t, int32(2), peak.Load(), "slow fetch does not block the next tick")

	r.Stop()
	close(release)
	r.Wait()
	assert.Equal(t, int32(0), inFlight.Load())
}

func TestRefresherContextCancelStops(t *testing.T) {
	calls := make(chan struct{}, 4)
	tick := NewManualTicker()
	r := New(func(context.Context) { calls <- struct{}{} }, time.Second, WithTicker(tick.Factory()))

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	waitCalls(t, calls, 1)
	cancel()

	require.Eventually(t, r.Stopped, time.Second, 5*time.Millisecond)
	assert.False(t, tick.Tick())
}

func TestRefresherRealTicker(t *testing.T) {
	var n atomic.Int32
	r := New(func(context.Context) { n.Add(1) }, 10*time.Millisecond)
	r.Start(context.Background())

	require.Eventually(t, func() bool { return n.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	r.Stop()
	r.Wait()
	stopped := n.Load()

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())
}
