package conn

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/jaydevelopsstuff/palm/internal/core"
)

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultDialTimeout = 8 * time.Second
	DefaultChunkSize   = 2048
	DefaultQueueSize   = 1024
)

var (
	// ErrNotActive is returned by SendData when no managed session is
	// receiving from the send queue.
	ErrNotActive = errors.New("conn: no active session")

	// ErrSendBacklog is returned by SendData when the send queue is full.
	ErrSendBacklog = errors.New("conn: send queue full")
)

// Options configures a Connection. The zero value is usable; New fills
// in defaults.
type Options struct {
	// Logger receives operational chatter. Defaults to a no-op logger.
	Logger *zap.Logger

	// Clock stamps log entries. Defaults to the real clock.
	Clock clock.Clock

	// DialTimeout bounds a client connect attempt.
	DialTimeout time.Duration

	// ChunkSize is the reader loop's fixed read size. The value has no
	// protocol meaning; payloads larger than it surface as multiple
	// received packets.
	ChunkSize int

	// QueueSize bounds the outbound send queue.
	QueueSize int

	// BusCapacity bounds the log bus pending queue.
	BusCapacity int
}

func (o *Options) fillDefaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
}

// Connection owns one TCP socket end to end: connect (or adopt), the
// paired reader/writer session, the send queue, shutdown, and log
// delivery. A Connection starts Inactive; StartClient or Adopt moves
// it through its lifecycle exactly once. Restarting a Connection after
// its session ended is not supported.
type Connection struct {
	opts   Options
	logger *zap.Logger
	clk    clock.Clock

	state    *core.State
	bus      *core.LogBus
	shutdown *core.Signal
	sendCh   chan core.DataPacket

	mu   sync.Mutex
	addr string
}

// New builds an Inactive connection.
func New(opts Options) *Connection {
	opts.fillDefaults()
	return &Connection{
		opts:     opts,
		logger:   opts.Logger,
		clk:      opts.Clock,
		state:    &core.State{},
		bus:      core.NewLogBus(opts.BusCapacity),
		shutdown: core.NewSignal(),
		sendCh:   make(chan core.DataPacket, opts.QueueSize),
	}
}

// StartClient begins connecting to address ("host:port"). The
// connection must be Inactive; starting in any other state is a
// caller contract violation and panics. The state moves to
// Establishing before StartClient returns, so callers that gate on
// NetState cannot double-start. The connect attempt, bounded by
// DialTimeout, runs in the background; its outcome is observed via
// NetState and the log bus.
func (c *Connection) StartClient(address string) {
	if st := c.state.Load(); st != core.StateInactive {
		panic("conn.StartClient: connection is " + st.String())
	}
	c.mu.Lock()
	c.addr = address
	c.mu.Unlock()
	c.state.Store(core.StateEstablishing)

	go func() {
		d := net.Dialer{Timeout: c.opts.DialTimeout}
		nc, err := d.Dial("tcp", address)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				c.bus.Publish(core.ConnectTimedOutEntry(c.clk.Now()))
				c.logger.Info("connect timed out", zap.String("addr", address))
			} else {
				c.bus.Publish(core.ConnectErrorEntry(c.clk.Now(), err))
				c.logger.Info("failed to establish connection", zap.String("addr", address), zap.Error(err))
			}
			c.state.Store(core.StateInactive)
			return
		}
		c.state.Store(core.StateActive)
		c.bus.Publish(core.ConnectEntry(c.clk.Now(), address))
		c.logger.Info("connected", zap.String("addr", address))
		c.runSession(nc, address, nil, nil)
	}()
}

// Adopt takes ownership of an already-established socket, as produced
// by a server's accept loop. The connection must be Inactive and
// panics otherwise. The state moves to Active immediately and the
// managed session starts in the background.
//
// parent, when non-nil, additionally receives the session's final
// Disconnect entry, so an owning server's aggregate log shows child
// disconnects. external, when non-nil, is a cascade shutdown source:
// it is only observed, and observing it re-raises the connection's own
// signal so teardown runs normally.
func (c *Connection) Adopt(nc net.Conn, address string, parent *core.LogBus, external *core.Signal) {
	if st := c.state.Load(); st != core.StateInactive {
		panic("conn.Adopt: connection is " + st.String())
	}
	c.mu.Lock()
	c.addr = address
	c.mu.Unlock()
	c.state.Store(core.StateActive)
	c.bus.Publish(core.ConnectEntry(c.clk.Now(), address))
	c.logger.Info("adopted connection", zap.String("addr", address))
	go c.runSession(nc, address, parent, external)
}

// SendData queues payload for transmission by the writer loop. The
// packet is queued before SendData returns; actual transmission order
// follows whatever the writer is already processing. A SentPacket
// entry is appended directly to the log history (not routed through
// the pending queue) so it stays visible even when that queue is
// saturated.
//
// Returns ErrNotActive when no session is receiving and ErrSendBacklog
// when the queue is full.
func (c *Connection) SendData(payload []byte) error {
	if c.state.Load() != core.StateActive {
		return ErrNotActive
	}
	pkt := core.OutboundPacket(payload)
	select {
	case c.sendCh <- pkt:
	default:
		return ErrSendBacklog
	}
	c.bus.Append(core.SentEntry(c.clk.Now(), pkt.Clone()))
	return nil
}

// Shutdown requests cooperative session teardown. It never blocks and
// repeated calls coalesce; completion is observed via NetState turning
// Inactive and a single Disconnect log entry.
func (c *Connection) Shutdown() { c.shutdown.Trigger() }

// NetState returns the current lifecycle state.
func (c *Connection) NetState() core.NetState { return c.state.Load() }

// Address returns the peer address assigned at start, or "" before any
// start.
func (c *Connection) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// DrainLogs moves any pending log entries into the history and returns
// the full history. Call it from a single consumer.
func (c *Connection) DrainLogs() []core.LogEntry {
	entries, _ := c.bus.Drain()
	return entries
}
