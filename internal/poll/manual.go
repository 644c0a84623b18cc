package poll

import (
	"sync"
	"time"
)

// ManualTicker is a Ticker driven by explicit Tick calls. It lets tests step
// a Refresher without sleeping.
type ManualTicker struct {
	c        chan time.Time
	once     sync.Once
	stopped  chan struct{}
	Interval time.Duration
}

// NewManualTicker returns a ticker that only fires when Tick is called.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{
		c:       make(chan time.Time),
		stopped: make(chan struct{}),
	}
}

// Factory returns a constructor for WithTicker that always hands out m.
func (m *ManualTicker) Factory() func(time.Duration) Ticker {
	return func(d time.Duration) Ticker {
		m.Interval = d
		return m
	}
}

func (m *ManualTicker) C() <-chan time.Time { return m.c }

func (m *ManualTicker) Stop() {
	m.once.Do(func() { close(m.stopped) })
}

// Tick delivers one tick and blocks until it is received. It reports false
// if the ticker was stopped first.
func (m *ManualTicker) Tick() bool {
	select {
	case m.c <- time.Now():
		return true
	case <-m.stopped:
		return false
	}
}

// IsStopped reports whether Stop has been called.
func (m *ManualTicker) IsStopped() bool {
	select {
	case <-m.stopped:
		return true
	default:
		return false
	}
}
