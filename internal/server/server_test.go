package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jaydevelopsstuff/palm/internal/conn"
	"github.com/jaydevelopsstuff/palm/internal/core"
)

const (
	settle = 2 * time.Second
	poll   = 10 * time.Millisecond
)

func countKind(entries []core.LogEntry, k core.EntryKind) int {
	n := 0
	for _, e := range entries {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func startServer(t *testing.T) *Server {
	t.Helper()
	s := New(Options{})
	s.Start(0)
	require.Equal(t, core.StateActive, s.NetState())
	t.Cleanup(s.Shutdown)
	return s
}

func TestStartAndShutdown(t *testing.T) {
	s := startServer(t)
	require.NotEmpty(t, s.Addr())

	entries, prior := s.DrainLogs()
	require.Equal(t, 0, prior)
	require.Equal(t, 1, countKind(entries, core.KindServerStarted))

	s.Shutdown()
	require.Eventually(t, func() bool {
		return s.NetState() == core.StateInactive
	}, settle, poll)
	require.Eventually(t, func() bool {
		entries, _ := s.DrainLogs()
		return countKind(entries, core.KindServerStopped) == 1
	}, settle, poll)

	// Shutdown is idempotent.
	s.Shutdown()
	time.Sleep(50 * time.Millisecond)
	entries, _ = s.DrainLogs()
	require.Equal(t, 1, countKind(entries, core.KindServerStopped))
}

func TestStartPanicsWhenNotInactive(t *testing.T) {
	s := startServer(t)
	require.Panics(t, func() { s.Start(0) })
}

func TestBindFailure(t *testing.T) {
	// Occupy a port, then ask the server to bind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	s := New(Options{})
	s.Start(uint16(port))

	require.Equal(t, core.StateInactive, s.NetState())
	entries, _ := s.DrainLogs()
	require.Equal(t, 1, countKind(entries, core.KindConnectError))
	require.Zero(t, countKind(entries, core.KindServerStarted))
}

func TestAcceptRegistersClients(t *testing.T) {
	s := startServer(t)

	const k = 3
	clients := make([]net.Conn, 0, k)
	for i := 0; i < k; i++ {
		nc, err := net.Dial("tcp", s.Addr())
		require.NoError(t, err)
		clients = append(clients, nc)
	}
	defer func() {
		for _, nc := range clients {
			nc.Close()
		}
	}()

	require.Eventually(t, func() bool {
		return len(s.Addresses()) == k
	}, settle, poll)

	entries, _ := s.DrainLogs()
	require.Equal(t, k, countKind(entries, core.KindConnect))

	// Each registered address is reachable through scoped access.
	for _, addr := range s.Addresses() {
		found := s.WithConnection(addr, func(c *conn.Connection) {
			require.Equal(t, core.StateActive, c.NetState())
			require.Equal(t, addr, c.Address())
		})
		require.True(t, found)
	}
	require.False(t, s.WithConnection("10.0.0.1:1", func(*conn.Connection) {}))
}

func TestWithConnectionSend(t *testing.T) {
	s := startServer(t)

	client, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool {
		return len(s.Addresses()) == 1
	}, settle, poll)
	addr := s.Addresses()[0]

	payload := []byte{0xCA, 0xFE}
	ok := s.WithConnection(addr, func(c *conn.Connection) {
		require.NoError(t, c.SendData(payload))
	})
	require.True(t, ok)

	buf := make([]byte, 16)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(settle)))
	n, err := client.Read(buf)
	require.NoError(t, err)
	require.Equal(t, payload, buf[:n])
}

func TestChildDisconnectReachesServerLog(t *testing.T) {
	s := startServer(t)

	client, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(s.Addresses()) == 1
	}, settle, poll)

	require.NoError(t, client.Close())
	require.Eventually(t, func() bool {
		entries, _ := s.DrainLogs()
		return countKind(entries, core.KindDisconnect) == 1
	}, settle, poll, "child disconnect never fanned out to the server bus")
}

func TestPruneInactive(t *testing.T) {
	s := startServer(t)

	client, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(s.Addresses()) == 1
	}, settle, poll)
	addr := s.Addresses()[0]

	require.Empty(t, s.PruneInactive())
	require.NoError(t, client.Close())

	require.Eventually(t, func() bool {
		gone := s.PruneInactive()
		return len(gone) == 1 && gone[0] == addr
	}, settle, poll)
	require.Empty(t, s.Addresses())
}

func TestShutdownCascadesToChildren(t *testing.T) {
	s := startServer(t)

	const k = 3
	clients := make([]net.Conn, 0, k)
	for i := 0; i < k; i++ {
		nc, err := net.Dial("tcp", s.Addr())
		require.NoError(t, err)
		clients = append(clients, nc)
	}
	defer func() {
		for _, nc := range clients {
			nc.Close()
		}
	}()
	require.Eventually(t, func() bool {
		return len(s.Addresses()) == k
	}, settle, poll)

	s.Shutdown()

	require.Eventually(t, func() bool {
		return s.NetState() == core.StateInactive
	}, settle, poll)
	require.Eventually(t, func() bool {
		inactive := 0
		for _, addr := range s.Addresses() {
			s.WithConnection(addr, func(c *conn.Connection) {
				if c.NetState() == core.StateInactive {
					inactive++
				}
			})
		}
		return inactive == k
	}, settle, poll, "children never cascaded to inactive")

	require.Eventually(t, func() bool {
		entries, _ := s.DrainLogs()
		return countKind(entries, core.KindServerStopped) == 1 &&
			countKind(entries, core.KindDisconnect) == k
	}, settle, poll)
}

// TestClientServerExchange is the end-to-end path: a Connection in
// client mode talks to a Server's adopted child on loopback.
func TestClientServerExchange(t *testing.T) {
	s := startServer(t)

	c := conn.New(conn.Options{})
	c.StartClient(s.Addr())
	require.Eventually(t, func() bool {
		return c.NetState() == core.StateActive
	}, settle, poll)

	// Both sides log the connect.
	require.Equal(t, 1, countKind(c.DrainLogs(), core.KindConnect))
	serverEntries, _ := s.DrainLogs()
	require.Equal(t, 1, countKind(serverEntries, core.KindConnect))

	require.Eventually(t, func() bool {
		return len(s.Addresses()) == 1
	}, settle, poll)
	clientAddr := s.Addresses()[0]

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, c.SendData(payload))

	require.Eventually(t, func() bool {
		got := false
		s.WithConnection(clientAddr, func(child *conn.Connection) {
			for _, e := range child.DrainLogs() {
				if e.Kind == core.KindReceivedPacket &&
					e.Packet.Origin == clientAddr &&
					string(e.Packet.Payload) == string(payload) {
					got = true
				}
			}
		})
		return got
	}, settle, poll, "server-side child never logged the received packet")

	c.Shutdown()
	require.Eventually(t, func() bool {
		return c.NetState() == core.StateInactive
	}, settle, poll)
}
