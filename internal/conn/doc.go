// Package conn implements the per-socket connection lifecycle.
//
// # Overview
//
// A Connection owns one TCP socket end to end: the connect attempt (or
// adoption of an accepted socket), the managed session of paired
// reader/writer goroutines, the bounded send queue, cooperative
// shutdown, and log delivery. Drivers interact only through the
// exposed operations: StartClient, Adopt, SendData, Shutdown,
// NetState, Address, DrainLogs.
//
// # Lifecycle
//
// A Connection is created Inactive. StartClient moves it to
// Establishing synchronously and the background task either fails the
// dial (back to Inactive, with a ConnectError or ConnectTimedOut
// entry) or reaches Active and runs the session. Adopt skips the
// connect phase and goes Active immediately. The session ends on peer
// close, fatal read error, or a raised shutdown signal; teardown moves
// the state back to Inactive and logs exactly one Disconnect entry.
// Calling a start operation while not Inactive panics: callers are
// expected to gate on NetState, so such a call is a programming error.
// Reuse after a completed session is not supported.
//
// # Concurrency
//
// Each session runs a reader, a writer, and a shutdown watcher. The
// reader publishes received chunks to the log bus; the writer drains
// the send queue; the watcher layers an optional external cascade
// signal over the local one and back-drives the socket deadline once
// shutdown fires so blocked I/O unblocks promptly. Cancellation is
// otherwise cooperative: loops observe the signal at their next wait.
//
// # Error model
//
// A zero-length read (EOF) is a normal disconnect. Interrupted-class
// errors are retried silently. Any other read error is logged as a
// FatalReadError and ends the session. Send failures (ErrNotActive,
// ErrSendBacklog) are returned synchronously and never panic.
package conn
