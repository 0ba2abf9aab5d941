package core

import "sync"

// Signal is a single-slot, level-triggered cooperative shutdown flag.
// Trigger is idempotent and coalesces repeated requests; Done exposes
// a channel that stays closed while the signal is raised, so late
// observers still see the stopped state. Share one *Signal among any
// number of listeners.
type Signal struct {
	mu    sync.Mutex
	fired bool
	ch    chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Trigger raises the signal. Safe to call from any goroutine and any
// number of times.
func (s *Signal) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fired {
		return
	}
	s.fired = true
	close(s.ch)
}

// Done returns a channel that is closed while the signal is raised.
// Listeners select on it alongside their other wait conditions.
func (s *Signal) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// Fired reports whether the signal is currently raised.
func (s *Signal) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Reset re-arms a fired signal. Channels handed out via Done before
// the reset keep observing the old (closed) channel; listeners must
// re-acquire Done after a reset to observe the next Trigger.
func (s *Signal) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fired {
		return
	}
	s.fired = false
	s.ch = make(chan struct{})
}
