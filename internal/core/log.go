package core

import (
	"fmt"
	"time"
)

// EntryKind discriminates log entries.
type EntryKind int

const (
	KindConnect EntryKind = iota
	KindDisconnect
	KindReceivedPacket
	KindSentPacket
	KindConnectError
	KindConnectTimedOut
	KindFatalReadError
	KindServerStarted
	KindServerStopped
)

func (k EntryKind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindDisconnect:
		return "disconnect"
	case KindReceivedPacket:
		return "received"
	case KindSentPacket:
		return "sent"
	case KindConnectError:
		return "connect-error"
	case KindConnectTimedOut:
		return "connect-timeout"
	case KindFatalReadError:
		return "read-error"
	case KindServerStarted:
		return "server-started"
	case KindServerStopped:
		return "server-stopped"
	default:
		return "unknown"
	}
}

// LogEntry is one timestamped, append-only event on a LogBus. Only the
// fields relevant to Kind are set: Addr for Connect/Disconnect, Packet
// for ReceivedPacket/SentPacket, Err for ConnectError/FatalReadError.
type LogEntry struct {
	Kind   EntryKind
	Addr   string
	Packet DataPacket
	Err    error
	Time   time.Time
}

// Constructors stamp the entry with the caller-supplied wall time so
// producers can share one injected clock.

func ConnectEntry(at time.Time, addr string) LogEntry {
	return LogEntry{Kind: KindConnect, Addr: addr, Time: at}
}

func DisconnectEntry(at time.Time, addr string) LogEntry {
	return LogEntry{Kind: KindDisconnect, Addr: addr, Time: at}
}

func ReceivedEntry(at time.Time, pkt DataPacket) LogEntry {
	return LogEntry{Kind: KindReceivedPacket, Packet: pkt, Time: at}
}

func SentEntry(at time.Time, pkt DataPacket) LogEntry {
	return LogEntry{Kind: KindSentPacket, Packet: pkt, Time: at}
}

func ConnectErrorEntry(at time.Time, err error) LogEntry {
	return LogEntry{Kind: KindConnectError, Err: err, Time: at}
}

func ConnectTimedOutEntry(at time.Time) LogEntry {
	return LogEntry{Kind: KindConnectTimedOut, Time: at}
}

func FatalReadEntry(at time.Time, err error) LogEntry {
	return LogEntry{Kind: KindFatalReadError, Err: err, Time: at}
}

func ServerStartedEntry(at time.Time) LogEntry {
	return LogEntry{Kind: KindServerStarted, Time: at}
}

func ServerStoppedEntry(at time.Time) LogEntry {
	return LogEntry{Kind: KindServerStopped, Time: at}
}

// String renders a stable one-line description without the payload
// bytes; display layers that want hex rendering format Packet.Payload
// themselves.
func (e LogEntry) String() string {
	switch e.Kind {
	case KindConnect:
		return fmt.Sprintf("connected to %s", e.Addr)
	case KindDisconnect:
		return fmt.Sprintf("disconnected from %s", e.Addr)
	case KindReceivedPacket:
		return fmt.Sprintf("received %d bytes from %s", len(e.Packet.Payload), e.Packet.Origin)
	case KindSentPacket:
		return fmt.Sprintf("sent %d bytes", len(e.Packet.Payload))
	case KindConnectError:
		return fmt.Sprintf("connect failed: %v", e.Err)
	case KindConnectTimedOut:
		return "connect timed out"
	case KindFatalReadError:
		return fmt.Sprintf("read failed: %v", e.Err)
	case KindServerStarted:
		return "server started"
	case KindServerStopped:
		return "server stopped"
	default:
		return "unknown entry"
	}
}
