package core

import "sync/atomic"

// NetState is the tri-state connectivity flag for one connection or
// server. The intended transitions:
//
//	Inactive -> Establishing -> Active -> Inactive
//	Inactive -> Establishing -> Inactive   (failed connect or bind)
//
// Only the owning background task stores transitions; everyone else
// reads. Reads are lock-free and used purely for lifecycle gating,
// never for data synchronization.
type NetState int32

const (
	StateInactive NetState = iota
	StateEstablishing
	StateActive
)

func (s NetState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateEstablishing:
		return "establishing"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// State is the shared cell holding a NetState. It is shared by pointer
// between an owning handle and its background task. The zero value is
// Inactive and ready to use.
type State struct {
	v atomic.Int32
}

// Load returns the current state. Safe from any goroutine.
func (s *State) Load() NetState { return NetState(s.v.Load()) }

// Store transitions the cell. Only the owning background task (or the
// synchronous start path that hands off to it) may call Store.
func (s *State) Store(next NetState) { s.v.Store(int32(next)) }
