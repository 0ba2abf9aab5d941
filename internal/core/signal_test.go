package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fired(s *Signal) bool {
	select {
	case <-s.Done():
		return true
	default:
		return false
	}
}

func TestSignalStartsLowered(t *testing.T) {
	s := NewSignal()
	require.False(t, s.Fired())
	require.False(t, fired(s))
}

func TestSignalTrigger(t *testing.T) {
	s := NewSignal()
	s.Trigger()
	require.True(t, s.Fired())
	require.True(t, fired(s))
}

func TestSignalTriggerIdempotent(t *testing.T) {
	s := NewSignal()
	s.Trigger()
	// A second trigger must not panic (no double close) and the signal
	// stays raised.
	s.Trigger()
	require.True(t, s.Fired())
}

func TestSignalLevelTriggeredForLateObservers(t *testing.T) {
	s := NewSignal()
	s.Trigger()
	// A listener that only now asks for Done still sees the raised state.
	select {
	case <-s.Done():
	default:
		t.Fatal("late observer did not see the raised signal")
	}
}

func TestSignalReset(t *testing.T) {
	s := NewSignal()
	old := s.Done()
	s.Trigger()
	s.Reset()

	require.False(t, s.Fired())
	require.False(t, fired(s))
	// Channels handed out before the reset keep the old (closed) view.
	select {
	case <-old:
	default:
		t.Fatal("pre-reset channel should remain closed")
	}

	// Resetting a lowered signal is a no-op.
	s.Reset()
	require.False(t, s.Fired())

	s.Trigger()
	require.True(t, fired(s))
}
