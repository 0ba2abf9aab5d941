package server

import (
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/jaydevelopsstuff/palm/internal/conn"
	"github.com/jaydevelopsstuff/palm/internal/core"
)

// DefaultBindHost is the listen host when Options.BindHost is empty.
// Loopback by default: this is a local diagnostic tool.
const DefaultBindHost = "127.0.0.1"

// Options configures a Server. The zero value is usable; New fills in
// defaults.
type Options struct {
	// Logger receives operational chatter. Defaults to a no-op logger.
	Logger *zap.Logger

	// Clock stamps log entries. Defaults to the real clock.
	Clock clock.Clock

	// BindHost is the listen host. Defaults to DefaultBindHost.
	BindHost string

	// BusCapacity bounds the aggregate log bus pending queue.
	BusCapacity int

	// ConnOptions is applied to every accepted connection. Its Logger
	// and Clock default to the server's own when unset.
	ConnOptions conn.Options
}

// Server owns a listening socket, the accept loop that wraps incoming
// streams in Connections, an address-keyed registry of those
// connections, and an aggregate log bus. Shutting the server down
// cascades cooperatively to every child.
type Server struct {
	opts   Options
	logger *zap.Logger
	clk    clock.Clock

	state    *core.State
	bus      *core.LogBus
	shutdown *core.Signal

	mu    sync.RWMutex
	conns map[string]*conn.Connection
	addr  string
}

// New builds an Inactive server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.BindHost == "" {
		opts.BindHost = DefaultBindHost
	}
	if opts.ConnOptions.Logger == nil {
		opts.ConnOptions.Logger = opts.Logger
	}
	if opts.ConnOptions.Clock == nil {
		opts.ConnOptions.Clock = opts.Clock
	}
	return &Server{
		opts:     opts,
		logger:   opts.Logger,
		clk:      opts.Clock,
		state:    &core.State{},
		bus:      core.NewLogBus(opts.BusCapacity),
		shutdown: core.NewSignal(),
		conns:    make(map[string]*conn.Connection),
	}
}

// Start binds a listener on the configured host and the given port
// (0 selects an ephemeral port, see Addr). The server must be
// Inactive; starting in any other state is a caller contract violation
// and panics. A bind failure is reported as a ConnectError entry and
// the state returns to Inactive, same contract as a failed client
// connect. On success the accept loop runs in the background.
func (s *Server) Start(port uint16) {
	if st := s.state.Load(); st != core.StateInactive {
		panic("server.Start: server is " + st.String())
	}
	s.state.Store(core.StateEstablishing)

	bind := net.JoinHostPort(s.opts.BindHost, strconv.Itoa(int(port)))
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		s.bus.Publish(core.ConnectErrorEntry(s.clk.Now(), err))
		s.logger.Info("failed to bind", zap.String("addr", bind), zap.Error(err))
		s.state.Store(core.StateInactive)
		return
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.state.Store(core.StateActive)
	s.bus.Publish(core.ServerStartedEntry(s.clk.Now()))
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	go func() {
		<-s.shutdown.Done()
		_ = ln.Close()
	}()
	go s.acceptLoop(ln)
}

// acceptLoop accepts until shutdown (or a broken listener), wrapping
// each stream in an adopted Connection registered by peer address.
// Children share the server's signal as their external cascade source
// and the server's bus as their parent sink, so the aggregate view
// shows child disconnects. The loop performs server teardown on exit.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.shutdown.Fired() {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.bus.Publish(core.ConnectErrorEntry(s.clk.Now(), err))
			s.logger.Warn("accept failed", zap.Error(err))
			s.shutdown.Trigger()
			break
		}

		peer := nc.RemoteAddr().String()
		child := conn.New(s.opts.ConnOptions)
		child.Adopt(nc, peer, s.bus, s.shutdown)
		s.mu.Lock()
		s.conns[peer] = child
		s.mu.Unlock()
		s.bus.Publish(core.ConnectEntry(s.clk.Now(), peer))
		s.logger.Info("accepted connection", zap.String("addr", peer))
	}

	// Children observe the fired signal at their own pace; the signal
	// stays raised so late observers still see it.
	s.state.Store(core.StateInactive)
	s.bus.Publish(core.ServerStoppedEntry(s.clk.Now()))
	s.logger.Info("server stopped")
}

// Shutdown requests cooperative teardown of the server and, via
// cascade, of every registered connection. It never blocks and
// repeated calls coalesce. Children are not force-joined: each ends at
// its next suspension point.
func (s *Server) Shutdown() { s.shutdown.Trigger() }

// NetState returns the current lifecycle state.
func (s *Server) NetState() core.NetState { return s.state.Load() }

// Addr returns the bound listen address after a successful Start, or
// "" before one. Useful with port 0.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// WithConnection runs fn against the connection registered for addr
// while holding the registry read lock, and reports whether addr was
// registered. fn must not block: Connection methods are internally
// synchronized and non-suspending, but anything that waits would hold
// the lock against the accept loop.
func (s *Server) WithConnection(addr string, fn func(*conn.Connection)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[addr]
	if !ok {
		return false
	}
	fn(c)
	return true
}

// Addresses returns the registered peer addresses in no particular
// order.
func (s *Server) Addresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addrs := make([]string, 0, len(s.conns))
	for addr := range s.conns {
		addrs = append(addrs, addr)
	}
	return addrs
}

// PruneInactive removes connections whose sessions have ended and
// returns their addresses. Connections outlive their sessions in the
// registry until pruned, so consumers can still drain their final log
// entries through WithConnection before calling this.
func (s *Server) PruneInactive() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var gone []string
	for addr, c := range s.conns {
		if c.NetState() == core.StateInactive {
			delete(s.conns, addr)
			gone = append(gone, addr)
		}
	}
	return gone
}

// DrainLogs moves pending aggregate entries into the history and
// returns the full history plus its length prior to this drain, for
// incremental polling.
func (s *Server) DrainLogs() ([]core.LogEntry, int) {
	return s.bus.Drain()
}
