// Package watch serves the session and collection snapshots over HTTP and
// streams their changes to WebSocket clients.
package watch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/poll"
	"github.com/milvus-admin/console/internal/session"
	"github.com/milvus-admin/console/internal/snapshot"
)

const shutdownTimeout = 5 * time.Second

// Session is the part of *session.Manager the server reads.
type Session interface {
	Snapshot() session.State
	Subscribe() (<-chan session.State, func())
}

// Lister fetches the collection list. *client.HTTPClient satisfies it.
type Lister interface {
	ListCollections(ctx context.Context, ep client.Endpoint) ([]client.Collection, error)
}

type Options struct {
	RefreshInterval time.Duration
	AllowedOrigins  []string // empty or "*" allows any origin
	PollOptions     []poll.Option
	Logger          *zap.Logger
}

// Server polls collections while the session is Connected and rebroadcasts
// every change.
type Server struct {
	sess        Session
	api         Lister
	opts        Options
	logger      *zap.Logger
	broadcaster *Broadcaster
	collections *snapshot.Holder[[]client.Collection]

	mu  sync.Mutex // serialises generation checks with Record
	gen atomic.Uint64
}

func NewServer(sess Session, api Lister, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 30 * time.Second
	}
	return &Server{
		sess:        sess,
		api:         api,
		opts:        opts,
		logger:      opts.Logger,
		broadcaster: NewBroadcaster(opts.Logger),
		collections: snapshot.New[[]client.Collection](),
	}
}

// Broadcaster exposes the client registry, mainly for tests.
func (s *Server) Broadcaster() *Broadcaster { return s.broadcaster }

// Run follows session changes until ctx is cancelled, mounting a collections
// refresher whenever the session is Connected.
func (s *Server) Run(ctx context.Context) {
	sub, unsub := s.sess.Subscribe()
	defer unsub()

	var (
		refresher *poll.Refresher
		current   client.Endpoint
	)
	stop := func() {
		if refresher != nil {
			refresher.Stop()
			refresher = nil
		}
		s.gen.Add(1)
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-sub:
			if !ok {
				return
			}
			s.broadcaster.Broadcast(Message{Type: MsgSession, Payload: st})

			if !st.Connected() {
				stop()
				continue
			}
			if refresher != nil && st.Endpoint == current {
				continue
			}
			stop()
			if st.Endpoint != current {
				s.collections.Reset()
			}
			current = st.Endpoint
			refresher = s.mount(ctx, current)
		}
	}
}

func (s *Server) mount(ctx context.Context, ep client.Endpoint) *poll.Refresher {
	gen := s.gen.Load()
	s.logger.Info("watching collections", zap.String("endpoint", ep.String()))
	r := poll.New(func(ctx context.Context) {
		cols, err := s.api.ListCollections(ctx, ep)
		s.mu.Lock()
		if s.gen.Load() != gen {
			s.mu.Unlock()
			return
		}
		s.collections.Record(cols, err)
		s.mu.Unlock()
		if err != nil {
			s.logger.Warn("list collections", zap.String("endpoint", ep.String()), zap.Error(err))
		}
		s.broadcaster.Broadcast(Message{Type: MsgCollections, Payload: s.collectionsPayload()})
	}, s.opts.RefreshInterval, s.opts.PollOptions...)
	r.Start(ctx)
	return r
}

func (s *Server) collectionsPayload() CollectionsPayload {
	st := s.collections.Get()
	p := CollectionsPayload{
		Collections: st.Value,
		Failures:    st.Failures,
	}
	if p.Collections == nil {
		p.Collections = []client.Collection{}
	}
	if st.HasValue {
		at := st.FetchedAt
		p.FetchedAt = &at
	}
	if st.Err != nil {
		p.Error = client.Message(st.Err)
	}
	return p
}

// Snapshot is the full state a new client starts from.
func (s *Server) Snapshot() SnapshotPayload {
	return SnapshotPayload{
		Session:     s.sess.Snapshot(),
		Collections: s.collectionsPayload(),
	}
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(s.logger), gin.Recovery())

	config := cors.DefaultConfig()
	if s.allowAllOrigins() {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = s.opts.AllowedOrigins
	}
	config.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	r.Use(cors.New(config))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/api/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Snapshot())
	})
	r.GET("/ws", s.handleWS)
	return r
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || s.allowAllOrigins() {
				return true
			}
			for _, o := range s.opts.AllowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
}

func (s *Server) allowAllOrigins() bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) handleWS(c *gin.Context) {
	up := s.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	cl := s.broadcaster.AddClient(conn, Message{Type: MsgSnapshot, Payload: s.Snapshot()})
	s.logger.Debug("ws client connected",
		zap.String("remote", c.Request.RemoteAddr),
		zap.Int("clients", s.broadcaster.ClientCount()))

	// The stream is one-way; reads only detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.broadcaster.RemoveClient(cl)
			return
		}
	}
}

// ListenAndServe runs Run and the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.Run(runCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("watch server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.broadcaster.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	err := srv.Shutdown(shutdownCtx)
	s.broadcaster.Close()
	return err
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
