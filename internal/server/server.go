package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
	"github.com/KilimcininKorOglu/obacodec/internal/logging"
	"github.com/KilimcininKorOglu/obacodec/internal/stream"
)

// Server errors
var (
	// ErrServerRunning is returned when Serve is called twice.
	ErrServerRunning = errors.New("server: already running")
	// ErrConnectionClosed is returned when writing to a closed connection.
	ErrConnectionClosed = errors.New("server: connection closed")
)

// Config holds the inspector server settings.
type Config struct {
	Address string
	// MaxConnections limits concurrent connections; 0 means unlimited.
	MaxConnections int
	// ReadTimeout bounds the wait for the next message; 0 disables it.
	ReadTimeout time.Duration
	// WriteTimeout bounds each response write; 0 disables it.
	WriteTimeout time.Duration
	// Codec holds the decoder limits.
	Codec grammar.Options
	// ReadBufferSize is the stream read chunk.
	ReadBufferSize int
}

// Server accepts LDAP connections and inspects their messages.
type Server struct {
	config Config
	logger logging.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Connection]struct{}
	running  atomic.Bool
	wg       sync.WaitGroup
	ready    chan struct{}
}

// New returns a Server. A nil logger discards output.
func New(config Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = stream.DefaultBufferSize
	}
	return &Server{
		config: config,
		logger: logger,
		conns:  make(map[*Connection]struct{}),
		ready:  make(chan struct{}),
	}
}

// ListenAndServe listens on the configured TCP address and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is cancelled or l fails. It
// closes l and waits for all connection goroutines before returning.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerRunning
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("inspector listening", "address", l.Addr().String())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		l.Close()
		s.closeConnections()
	}()

	var err error
	for {
		conn, acceptErr := l.Accept()
		if acceptErr != nil {
			if ctx.Err() == nil && !errors.Is(acceptErr, net.ErrClosed) {
				err = acceptErr
			}
			break
		}

		if limit := s.config.MaxConnections; limit > 0 && s.ActiveConnections() >= limit {
			s.logger.Warn("connection limit reached", "client", conn.RemoteAddr().String(), "max", limit)
			conn.Close()
			continue
		}

		c := newConnection(conn, s)
		if !s.track(c) {
			c.Close()
			break
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			c.Handle()
		}()
	}

	l.Close()
	s.closeConnections()
	s.wg.Wait()
	s.logger.Info("inspector stopped", "address", l.Addr().String())
	return err
}

// Addr returns the listener address, waiting until Serve has started.
func (s *Server) Addr() net.Addr {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.Addr()
}

// ActiveConnections returns the number of open connections.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) track(c *Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// closeConnections closes every open connection and refuses new ones.
func (s *Server) closeConnections() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for c := range conns {
		c.Close()
	}
}
