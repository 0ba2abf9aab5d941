package conn

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jaydevelopsstuff/palm/internal/core"
)

// aLongTimeAgo is a non-zero past deadline used to unblock in-flight
// socket I/O once shutdown fires.
var aLongTimeAgo = time.Unix(1, 0)

// runSession drives the paired reader/writer loops over an established
// socket and performs teardown once both exit: reset the local signal,
// state back to Inactive, Disconnect entry to the local bus and, if
// present, the parent sink.
func (c *Connection) runSession(nc net.Conn, address string, parent *core.LogBus, external *core.Signal) {
	watchCtx, stopWatch := context.WithCancel(context.Background())
	go c.watchShutdown(watchCtx, nc, external)

	var g errgroup.Group
	g.Go(func() error { return c.readLoop(nc, address) })
	g.Go(func() error { return c.writeLoop(nc) })
	err := g.Wait()
	stopWatch()

	if err = multierr.Append(err, nc.Close()); err != nil {
		c.logger.Debug("session teardown", zap.String("addr", address), zap.Error(err))
	}

	c.shutdown.Reset()
	c.state.Store(core.StateInactive)
	entry := core.DisconnectEntry(c.clk.Now(), address)
	c.bus.Publish(entry)
	if parent != nil {
		parent.Publish(entry)
	}
	c.logger.Info("disconnected", zap.String("addr", address))
}

// watchShutdown layers the external cascade source over the local
// signal: an external fire re-raises the local signal rather than
// bypassing cleanup. Once the local signal is raised the socket
// deadline is back-driven so a blocked read or write observes
// cancellation instead of hanging until the transport fails.
func (c *Connection) watchShutdown(ctx context.Context, nc net.Conn, external *core.Signal) {
	var extDone <-chan struct{}
	if external != nil {
		extDone = external.Done()
	}
	select {
	case <-ctx.Done():
		return
	case <-extDone:
		c.shutdown.Trigger()
	case <-c.shutdown.Done():
	}
	_ = nc.SetDeadline(aLongTimeAgo)
}

// readLoop reads fixed-size chunks until the peer closes, a fatal read
// error occurs, or shutdown is observed. Each non-empty read becomes a
// ReceivedPacket entry tagged with the peer address.
func (c *Connection) readLoop(nc net.Conn, address string) error {
	buf := make([]byte, c.opts.ChunkSize)
	for {
		if c.shutdown.Fired() {
			return nil
		}
		n, err := nc.Read(buf)
		if n > 0 {
			c.bus.Publish(core.ReceivedEntry(c.clk.Now(), core.NewPacket(address, buf[:n])))
		}
		if err == nil {
			continue
		}
		switch {
		case errors.Is(err, io.EOF):
			// Peer closed gracefully; a normal disconnect, not an error.
			c.shutdown.Trigger()
			return nil
		case errors.Is(err, syscall.EINTR):
			continue
		case isTimeout(err) && c.shutdown.Fired():
			// Deadline back-driven by the watcher; cooperative exit.
			return nil
		default:
			c.bus.Publish(core.FatalReadEntry(c.clk.Now(), err))
			c.logger.Warn("fatal read error", zap.String("addr", address), zap.Error(err))
			c.shutdown.Trigger()
			return err
		}
	}
}

// writeLoop waits on the shutdown signal and the send queue; each
// packet is written in full before the next wait.
func (c *Connection) writeLoop(nc net.Conn) error {
	done := c.shutdown.Done()
	for {
		select {
		case <-done:
			return nil
		case pkt := <-c.sendCh:
			if _, err := nc.Write(pkt.Payload); err != nil {
				if isTimeout(err) && c.shutdown.Fired() {
					return nil
				}
				c.shutdown.Trigger()
				return err
			}
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
