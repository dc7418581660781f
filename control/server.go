package control

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/colorblob/logging"
	"go.viam.com/colorblob/utils"
)

// acceptBackoff is how long the accept loop waits after a transient accept error.
const acceptBackoff = 100 * time.Millisecond

// ServerStats counts what the server has seen since it started.
type ServerStats struct {
	Connections int64
	Messages    int64
	Rejected    int64
}

// Server accepts control connections and applies their messages to a Store. Each connection is
// served by its own worker.
type Server struct {
	store  *Store
	logger logging.Logger

	mu       sync.Mutex
	listener net.Listener
	workers  utils.StoppableWorkers

	connections atomic.Int64
	messages    atomic.Int64
	rejected    atomic.Int64
}

// NewServer returns a server that updates store.
func NewServer(store *Store, logger logging.Logger) *Server {
	return &Server{store: store, logger: logger}
}

// Start listens on address and accepts connections in the background until Close is called or
// ctx is done.
func (s *Server) Start(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return errors.New("control server already started")
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %q", address)
	}
	s.listener = listener
	s.workers = utils.NewStoppableWorkersWithContext(ctx)
	if !s.workers.AddWorkers(s.acceptLoop) {
		s.listener, s.workers = nil, nil
		return multierr.Combine(errors.Wrap(ctx.Err(), "control server not started"), listener.Close())
	}
	s.logger.Infow("control server listening", "address", listener.Addr().String())
	return nil
}

// Addr returns the address the server listens on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stats returns the server counters.
func (s *Server) Stats() ServerStats {
	return ServerStats{
		Connections: s.connections.Load(),
		Messages:    s.messages.Load(),
		Rejected:    s.rejected.Load(),
	}
}

func (s *Server) acceptLoop(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		goutils.UncheckedError(s.listener.Close())
	})
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warnw("failed to accept control connection", "error", err)
			if !goutils.SelectContextOrWait(ctx, acceptBackoff) {
				return
			}
			continue
		}
		if !s.workers.AddWorkers(func(ctx context.Context) {
			s.ServeConn(ctx, conn)
		}) {
			goutils.UncheckedError(conn.Close())
			return
		}
	}
}

// ServeConn reads messages from conn until the client quits, the connection fails or ctx is
// done, and then closes conn. Bad messages are logged and skipped.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	id := uuid.NewString()
	remote := "unknown"
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	s.connections.Inc()
	logger := s.logger.WithFields("conn_id", id, "remote", remote)
	logger.Info("control client connected")

	stop := context.AfterFunc(ctx, func() {
		goutils.UncheckedError(conn.Close())
	})
	defer func() {
		stop()
		goutils.UncheckedError(conn.Close())
	}()

	buf := make([]byte, MaxMessageSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.messages.Inc()
			quit, herr := s.store.Handle(buf[:n])
			if herr != nil {
				s.rejected.Inc()
				logger.Warnw("ignoring control message", "error", herr)
			}
			if quit {
				logger.Info("control client quit")
				return
			}
		}
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				logger.Info("control client disconnected")
			case ctx.Err() != nil:
				logger.Debug("control connection closed on shutdown")
			default:
				logger.Errorw("can't read from control client", "error", err)
			}
			return
		}
	}
}

// Close stops accepting, closes every connection and waits for their workers to exit.
func (s *Server) Close() error {
	s.mu.Lock()
	workers := s.workers
	s.mu.Unlock()
	if workers == nil {
		return nil
	}
	workers.Stop()
	return nil
}
