package addrcache

import (
	"context"
	"net"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/rcrowley/go-metrics"

	"github.com/skipor/addrcache/cache"
	"github.com/skipor/addrcache/log"
)

const DefaultPort = "7311"

type Server struct {
	Addr string
	ConnMeta
	Log         log.Logger
	connCounter int64

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	listener net.Listener
}

// ConnMeta is data shared between connections.
type ConnMeta struct {
	Cache cache.Cache[netip.Addr]
	// Metrics are reported by stats command. Optional.
	Metrics metrics.Registry
}

func NewServer(l log.Logger, conf Config, c cache.Cache[netip.Addr], r metrics.Registry) *Server {
	return &Server{
		Addr: conf.Addr,
		Log:  l,
		ConnMeta: ConnMeta{
			Cache:   c,
			Metrics: r,
		},
	}
}

func (s *Server) ListenAndServe() error {
	if s.Addr == "" {
		s.Addr = ":" + DefaultPort
	}
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections until Close, or non temporary accept error.
// After Close returns nil.
func (s *Server) Serve(l net.Listener) error {
	ctx := s.init(l)
	var tempDelay time.Duration // How long to sleep on accept failure.
	for {
		c, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); !(ok && ne.Temporary()) {
				return err
			}
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if max := 1 * time.Second; tempDelay > max {
				tempDelay = max
			}
			s.Log.Errorf("addrcache: Accept error: %v; retrying in %v", err, tempDelay)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0
		go s.newConn(ctx, c).serve()
	}
}

// Close stops accepting connections, and aborts blocked takes.
// Connections that are not blocked, are served until client disconnect.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cancel == nil {
		// Not serving yet.
		return nil
	}
	s.cancel()
	return s.listener.Close()
}

func (s *Server) newConn(ctx context.Context, c net.Conn) *conn {
	conn := newConn(ctx, s.Log.WithFields(log.Fields{"conn": s.connCounter}), &s.ConnMeta, c)
	s.connCounter++
	return conn
}

func (s *Server) init(l net.Listener) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Log == nil {
		s.Log = log.NewLogger(log.ErrorLevel, os.Stderr)
	}
	if s.Cache == nil {
		s.Log.Panic("Cache is required.")
	}
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.listener = l
	if s.closed {
		s.cancel()
		l.Close()
	}
	return ctx
}
