// Package server implements the listening side of the harness.
//
// # Overview
//
// A Server binds a loopback listener, accepts incoming streams, and
// wraps each in an adopted conn.Connection registered under its peer
// address. The server keeps an aggregate log bus: its own lifecycle
// entries (ServerStarted, ServerStopped), a Connect entry per accepted
// peer, and the final Disconnect of every child (fanned out by the
// child's parent sink). Per-connection traffic stays on the child's
// own bus, reachable through WithConnection.
//
// # Shutdown cascade
//
// Every child observes the server's shutdown signal as an external
// cascade source; firing it re-raises each child's local signal, so
// children tear down cooperatively and asynchronously. The server
// itself logs ServerStopped and turns Inactive without force-joining
// children.
//
// # Registry access
//
// WithConnection provides short scoped access under the registry's
// read lock; the callback must not block. Addresses enumerates the
// registry and PruneInactive evicts connections whose sessions ended.
package server
