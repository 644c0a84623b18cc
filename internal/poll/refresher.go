// Package poll runs a fetch function immediately and then on a fixed
// interval until stopped.
package poll

import (
	"context"
	"sync"
	"time"
)

// FetchFunc is invoked on every tick. It receives the context passed to
// Start; Stop does not cancel it.
type FetchFunc func(ctx context.Context)

// Ticker is the subset of *time.Ticker the Refresher needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithTicker replaces the ticker constructor, mainly for tests.
func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(r *Refresher) {
		if fn != nil {
			r.newTicker = fn
		}
	}
}

// Refresher calls fetch once on Start and then on every tick. Each call runs
// on its own goroutine, so a slow fetch can overlap the next one. A
// Refresher is single-use: once stopped it cannot be restarted.
type Refresher struct {
	fetch     FetchFunc
	interval  time.Duration
	newTicker func(time.Duration) Ticker

	mu      sync.Mutex
	started bool
	stopped bool
	ticker  Ticker
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a Refresher. It does nothing until Start is called.
func New(fetch FetchFunc, interval time.Duration, opts ...Option) *Refresher {
	r := &Refresher{
		fetch:     fetch,
		interval:  interval,
		newTicker: NewTimeTicker,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start invokes fetch immediately and begins ticking. It returns at once.
// Calling Start more than once, or after Stop, has no effect. Cancelling
// ctx stops the Refresher.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.ticker = r.newTicker(r.interval)
	ticks := r.ticker.C()
	r.mu.Unlock()

	r.invoke(ctx)
	go r.loop(ctx, ticks)
}

func (r *Refresher) loop(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			r.Stop()
			return
		case <-r.done:
			return
		case <-ticks:
			r.invoke(ctx)
		}
	}
}

func (r *Refresher) invoke(ctx context.Context) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		if !r.admit() {
			return
		}
		r.fetch(ctx)
	}()
}

// admit is the point at which a scheduled fetch commits to running. It is
// ordered against Stop by mu.
func (r *Refresher) admit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.stopped
}

// Stop clears the ticker. No fetch is scheduled or admitted after Stop
// returns. A fetch admitted just before may still be entering or running;
// Wait blocks until those have returned.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	if r.ticker != nil {
		r.ticker.Stop()
	}
	close(r.done)
}

// Stopped reports whether Stop has been called.
func (r *Refresher) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Wait blocks until every fetch started so far has returned.
func (r *Refresher) Wait() {
	r.wg.Wait()
}
