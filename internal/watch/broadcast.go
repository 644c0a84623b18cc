package watch

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBuffer = 64

// peer is one connected browser. Its queue is only closed under mu, so an
// offer racing a shutdown either lands or is dropped.
type peer struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	queue  chan []byte
}

func newPeer(conn *websocket.Conn) *peer {
	return &peer{conn: conn, queue: make(chan []byte, sendBuffer)}
}

// pump writes queued frames until the queue is closed or a write fails.
func (p *peer) pump() {
	defer p.conn.Close()
	for frame := range p.queue {
		if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}

// offer queues frame without blocking. It reports false when the queue is
// full; a shut down peer silently ignores the frame.
func (p *peer) offer(frame []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return true
	}
	select {
	case p.queue <- frame:
		return true
	default:
		return false
	}
}

func (p *peer) shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
}

// Broadcaster fans state frames out to watch clients. A client that cannot
// keep up is disconnected.
type Broadcaster struct {
	mu     sync.RWMutex
	peers  map[*peer]struct{}
	logger *zap.Logger
}

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{peers: make(map[*peer]struct{}), logger: logger}
}

// AddClient registers conn with initial as the first frame it receives.
func (b *Broadcaster) AddClient(conn *websocket.Conn, initial Message) *peer {
	p := newPeer(conn)
	b.register(p, initial)
	go p.pump()
	return p
}

// register queues initial before p becomes visible to Broadcast.
func (b *Broadcaster) register(p *peer, initial Message) {
	if frame, err := json.Marshal(initial); err != nil {
		b.logger.Error("encode initial frame", zap.String("type", string(initial.Type)), zap.Error(err))
	} else {
		p.offer(frame)
	}
	b.mu.Lock()
	b.peers[p] = struct{}{}
	b.mu.Unlock()
}

func (b *Broadcaster) RemoveClient(p *peer) {
	b.mu.Lock()
	_, ok := b.peers[p]
	delete(b.peers, p)
	b.mu.Unlock()
	if ok {
		p.shutdown()
	}
}

// Broadcast queues msg for every client and drops the ones whose queue is full.
func (b *Broadcaster) Broadcast(msg Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("encode frame", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}

	var slow []*peer
	b.mu.RLock()
	for p := range b.peers {
		if !p.offer(frame) {
			slow = append(slow, p)
		}
	}
	b.mu.RUnlock()

	for _, p := range slow {
		b.logger.Warn("watch client too slow, disconnecting", zap.Int("buffer", cap(p.queue)))
		b.RemoveClient(p)
	}
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	peers := b.peers
	b.peers = make(map[*peer]struct{})
	b.mu.Unlock()
	for p := range peers {
		p.shutdown()
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.peers)
}
