package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateZeroValueIsInactive(t *testing.T) {
	var s State
	require.Equal(t, StateInactive, s.Load())
}

func TestStateStoreLoad(t *testing.T) {
	var s State
	s.Store(StateEstablishing)
	require.Equal(t, StateEstablishing, s.Load())
	s.Store(StateActive)
	require.Equal(t, StateActive, s.Load())
	s.Store(StateInactive)
	require.Equal(t, StateInactive, s.Load())
}

func TestNetStateString(t *testing.T) {
	tests := []struct {
		state NetState
		want  string
	}{
		{StateInactive, "inactive"},
		{StateEstablishing, "establishing"},
		{StateActive, "active"},
		{NetState(42), "unknown"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.state.String())
	}
}
