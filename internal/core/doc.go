// Package core owns the shared primitives of the connection engine.
//
// # Overview
//
// The core package models the pieces every connection and server share:
// a tri-state lifecycle flag (NetState/State), an immutable payload
// carrier (DataPacket), a timestamped event taxonomy (LogEntry), the
// bus delivering those events to a polling consumer (LogBus), and the
// cooperative shutdown flag (Signal). It knows nothing about sockets.
//
// Concurrency & Safety
//
// State is read lock-free from any goroutine; only the owning task
// stores transitions. LogBus accepts Publish from any number of
// producers and is drained by exactly one consumer. Signal may be
// shared by pointer with any number of listeners; Trigger is
// idempotent and level-triggered, so a listener arriving after the
// fact still observes the raised flag.
//
// # Lifecycle
//
// NetState follows:
//
//	inactive -> establishing -> active -> inactive
//	inactive -> establishing -> inactive   (failed connect or bind)
//
// Callers gate start operations on Inactive; the owning tasks in the
// conn and server packages drive every transition.
//
// # Log delivery
//
// Producers publish into a bounded pending queue and the consumer's
// Drain moves everything accumulated into an append-only history,
// returning the history plus its prior length for incremental polling.
// Entries that must never be lost to queue saturation (locally sent
// packets) are appended to the history directly via Append.
package core
