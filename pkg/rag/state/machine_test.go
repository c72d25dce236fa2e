package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineHappyPath(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.To(IdentifierResolution))
	require.NoError(t, m.To(ActionDispatch))
	require.NoError(t, m.To(ResponseEmitted))

	assert.Equal(t, []State{Idle, IdentifierResolution, ActionDispatch, ResponseEmitted}, m.Trace())
}

func TestMachineRejectsSkippingBackwards(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.To(ActionDispatch))

	err := m.To(IdentifierResolution)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ActionDispatch, m.Current())
}

func TestMachineEmitFromAnywhere(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.To(IdentifierResolution))
	m.Emit()
	m.Emit()
	assert.Equal(t, ResponseEmitted, m.Current())
	assert.Len(t, m.Trace(), 3)

	m.Reset()
	assert.Equal(t, Idle, m.Current())
	assert.NoError(t, m.To(ActionDispatch))
}
