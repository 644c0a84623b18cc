// Package snapshot keeps the most recent successful fetch of some remote
// state together with the health of the fetches that followed it.
package snapshot

import (
	"sync"
	"time"
)

// State is a point-in-time copy of a Holder.
type State[T any] struct {
	Value     T
	HasValue  bool
	FetchedAt time.Time // time of the last successful fetch
	Err       error     // most recent failure, nil after a success
	FailedAt  time.Time
	Failures  int // consecutive failures since the last success
}

// Stale reports whether the value predates a failed fetch.
func (s State[T]) Stale() bool {
	return s.Err != nil && s.HasValue
}

// Holder retains the last-good value when a fetch fails. A failure records
// the error and bumps a consecutive-failure counter; a success replaces the
// value and resets both. Safe for concurrent use.
type Holder[T any] struct {
	mu    sync.Mutex
	state State[T]
	now   func() time.Time
}

func New[T any]() *Holder[T] {
	return &Holder[T]{now: time.Now}
}

// Set records a successful fetch.
func (h *Holder[T]) Set(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Value = v
	h.state.HasValue = true
	h.state.FetchedAt = h.now()
	h.state.Err = nil
	h.state.Failures = 0
}

// Fail records a failed fetch and keeps the previous value.
func (h *Holder[T]) Fail(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Err = err
	h.state.FailedAt = h.now()
	h.state.Failures++
}

// Record dispatches to Set or Fail depending on err.
func (h *Holder[T]) Record(v T, err error) {
	if err != nil {
		h.Fail(err)
		return
	}
	h.Set(v)
}

// Get returns a copy of the current state.
func (h *Holder[T]) Get() State[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Reset forgets everything, e.g. when the session moves to another endpoint.
func (h *Holder[T]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = State[T]{}
}
