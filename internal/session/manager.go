// Package session owns the console's single connection to a cluster
// endpoint: which endpoint it targets, whether that endpoint is reachable,
// and the background liveness check that keeps the answer current.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/poll"
	"github.com/milvus-admin/console/internal/store"
)

// DefaultLivenessInterval is how often a Connected session is re-probed.
const DefaultLivenessInterval = 30 * time.Second

// ErrClosed is returned by WaitSettled once the Manager has been closed.
var ErrClosed = errors.New("session manager closed")

// Prober checks whether the admin API can reach an endpoint.
type Prober interface {
	Ping(ctx context.Context, ep client.Endpoint) (*client.PingResponse, error)
}

// EndpointStore persists the last connected endpoint.
type EndpointStore interface {
	Load() (client.Endpoint, error)
	Save(ep client.Endpoint) error
	Clear() error
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithLivenessInterval sets the re-probe interval while Connected.
func WithLivenessInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithPollOptions passes options through to the liveness refresher.
func WithPollOptions(opts ...poll.Option) Option {
	return func(m *Manager) { m.pollOpts = append(m.pollOpts, opts...) }
}

// WithClock overrides time.Now for LastVerifiedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager is the only writer of session State. Build one per process and
// share it.
type Manager struct {
	prober   Prober
	store    EndpointStore
	logger   *zap.Logger
	interval time.Duration
	pollOpts []poll.Option
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	// persistMu serializes store writes with the state commit that follows
	// them. It is always taken before mu, never while holding it.
	persistMu sync.Mutex

	mu       sync.Mutex
	state    State
	epoch    uint64 // bumped by Disconnect and Close; stale probes compare it
	liveness *poll.Refresher
	liveGen  uint64
	changed  chan struct{}
	subs     map[int]chan State
	nextSub  int
	closed   bool
}

// NewManager creates a Manager in the Idle state.
func NewManager(prober Prober, st EndpointStore, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		prober:   prober,
		store:    st,
		logger:   zap.NewNop(),
		interval: DefaultLivenessInterval,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		state:    State{Status: Idle},
		changed:  make(chan struct{}),
		subs:     make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start reads the persisted endpoint and connects to it. Without one the
// session becomes Disconnected.
func (m *Manager) Start() {
	ep, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNoEndpoint) {
			m.logger.Warn("reading saved endpoint", zap.Error(err))
		}
		m.mu.Lock()
		if !m.closed && m.state.Status == Idle {
			m.setStateLocked(State{Status: Disconnected})
		}
		m.mu.Unlock()
		return
	}
	m.Connect(ep.Host, ep.Port)
}

// Connect moves the session to Connecting and probes the endpoint in the
// background. It is safe to call repeatedly; there is no cancellation, and
// whichever probe answers last decides the status.
func (m *Manager) Connect(host string, port int) {
	ep := client.Endpoint{Host: host, Port: port}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.stopLivenessLocked()
	m.setStateLocked(State{Status: Connecting, Endpoint: ep, LastVerifiedAt: m.state.LastVerifiedAt})
	epoch := m.epoch
	if !ep.Valid() {
		m.setStateLocked(State{Status: Failed, Endpoint: ep, LastError: "invalid endpoint " + ep.String()})
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	go m.probe(epoch, ep)
}

func (m *Manager) probe(epoch uint64, ep client.Endpoint) {
	resp, err := m.prober.Ping(m.ctx, ep)
	if err == nil && resp.Connected {
		m.commitConnected(epoch, ep, resp)
		return
	}

	msg := "endpoint not reachable"
	if err != nil {
		msg = client.Message(err)
	}
	m.mu.Lock()
	if m.closed || m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.stopLivenessLocked()
	m.setStateLocked(State{Status: Failed, Endpoint: ep, LastError: msg, LastVerifiedAt: m.state.LastVerifiedAt})
	m.mu.Unlock()
	m.logger.Warn("connect probe failed", zap.Stringer("endpoint", ep), zap.String("error", msg))
}

// commitConnected persists the confirmed endpoint and then publishes
// Connected. The store is written without holding mu, so readers of the
// state are not held up by the file lock. A Disconnect or Close that lands
// meanwhile bumps the epoch and wins.
func (m *Manager) commitConnected(epoch uint64, ep client.Endpoint, resp *client.PingResponse) {
	confirmed := ep
	if resp.Host != "" {
		confirmed.Host = resp.Host
	}
	if resp.Port > 0 {
		confirmed.Port = resp.Port
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()
	if !m.current(epoch) {
		return
	}
	if err := m.store.Save(confirmed); err != nil {
		m.logger.Error("saving endpoint", zap.Stringer("endpoint", confirmed), zap.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.epoch != epoch {
		return
	}
	m.setStateLocked(State{Status: Connected, Endpoint: confirmed, LastVerifiedAt: m.now()})
	m.startLivenessLocked(confirmed)
}

func (m *Manager) current(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed && m.epoch == epoch
}

func (m *Manager) startLivenessLocked(ep client.Endpoint) {
	m.stopLivenessLocked()
	m.liveGen++
	gen := m.liveGen

	// The connect probe has just verified the endpoint, so the refresher's
	// immediate call is skipped.
	var primed atomic.Bool
	fetch := func(ctx context.Context) {
		if !primed.Swap(true) {
			return
		}
		m.checkLiveness(ctx, gen, ep)
	}
	m.liveness = poll.New(fetch, m.interval, m.pollOpts...)
	m.liveness.Start(m.ctx)
}

func (m *Manager) stopLivenessLocked() {
	if m.liveness != nil {
		m.liveness.Stop()
		m.liveness = nil
	}
}

func (m *Manager) checkLiveness(ctx context.Context, gen uint64, ep client.Endpoint) {
	resp, err := m.prober.Ping(ctx, ep)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.liveGen || m.state.Status != Connected {
		return
	}
	if err == nil && resp.Connected {
		next := m.state
		next.LastVerifiedAt = m.now()
		m.setStateLocked(next)
		return
	}

	msg := "endpoint not reachable"
	if err != nil {
		msg = client.Message(err)
	}
	m.logger.Warn("liveness check failed", zap.Stringer("endpoint", ep), zap.String("error", msg))
	m.stopLivenessLocked()
	m.setStateLocked(State{Status: Failed, Endpoint: m.state.Endpoint, LastError: msg, LastVerifiedAt: m.state.LastVerifiedAt})
}

// Disconnect forgets the endpoint: liveness stops, the session becomes
// Disconnected and the saved endpoint is removed. Probes still in flight
// are ignored when they return.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.epoch++
	m.stopLivenessLocked()
	m.setStateLocked(State{Status: Disconnected, Endpoint: m.state.Endpoint})
	m.mu.Unlock()

	m.persistMu.Lock()
	defer m.persistMu.Unlock()
	if err := m.store.Clear(); err != nil {
		m.logger.Error("clearing saved endpoint", zap.Error(err))
	}
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a channel that receives the state after every change.
// A slow reader only misses intermediate states; the newest is always
// delivered. The channel is closed by cancel or Close.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan State, 8)
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
		})
	}
}

// WaitSettled blocks until the session is no longer Connecting.
func (m *Manager) WaitSettled(ctx context.Context) (State, error) {
	for {
		m.mu.Lock()
		s, changed, closed := m.state, m.changed, m.closed
		m.mu.Unlock()
		if closed {
			return s, ErrClosed
		}
		if s.Status != Connecting && s.Status != Idle {
			return s, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}

// Close stops liveness checks, abandons in-flight probes and closes every
// subscription. The Manager cannot be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.epoch++
	m.stopLivenessLocked()
	m.cancel()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
	close(m.changed)
}

func (m *Manager) setStateLocked(next State) {
	prev := m.state
	m.state = next
	if prev.Status != next.Status {
		m.logger.Info("session status changed",
			zap.Stringer("from", prev.Status),
			zap.Stringer("to", next.Status),
			zap.String("host", next.Endpoint.Host),
			zap.Int("port", next.Endpoint.Port))
	}

	close(m.changed)
	m.changed = make(chan struct{})

	for _, ch := range m.subs {
		select {
		case ch <- next:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
}
