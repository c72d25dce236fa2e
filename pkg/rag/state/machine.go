// Package state tracks where a chat turn is in the workflow.
package state

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type State string

const (
	Idle                 State = "IDLE"
	IdentifierResolution State = "IDENTIFIER_RESOLUTION"
	ActionDispatch       State = "ACTION_DISPATCH"
	ResponseEmitted      State = "RESPONSE_EMITTED"
)

var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	Idle:                 {IdentifierResolution, ActionDispatch, ResponseEmitted},
	IdentifierResolution: {ActionDispatch, ResponseEmitted},
	ActionDispatch:       {ResponseEmitted},
	ResponseEmitted:      {Idle},
}

// Machine is used by a single turn and is not safe for concurrent use.
type Machine struct {
	current State
	trace   []State
	logger  *zap.Logger
}

func NewMachine(logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{current: Idle, trace: []State{Idle}, logger: logger}
}

func (m *Machine) Current() State { return m.current }

// Trace returns every state visited since the machine was created.
func (m *Machine) Trace() []State {
	return append([]State(nil), m.trace...)
}

// To moves to next. Staying in the current state is a no-op.
func (m *Machine) To(next State) error {
	if next == m.current {
		return nil
	}
	for _, allowed := range transitions[m.current] {
		if allowed == next {
			m.logger.Debug("state transition", zap.String("from", string(m.current)), zap.String("to", string(next)))
			m.current = next
			m.trace = append(m.trace, next)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, next)
}

// Emit moves to ResponseEmitted from any state. Every turn ends here,
// including failed ones.
func (m *Machine) Emit() {
	if m.current == ResponseEmitted {
		return
	}
	m.logger.Debug("state transition", zap.String("from", string(m.current)), zap.String("to", string(ResponseEmitted)))
	m.current = ResponseEmitted
	m.trace = append(m.trace, ResponseEmitted)
}

// Reset returns to Idle for the next turn.
func (m *Machine) Reset() {
	m.current = Idle
	m.trace = append(m.trace, Idle)
}
