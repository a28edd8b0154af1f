// internal/game/machine.go
package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// ErrIllegalTransition is returned when a transition is not an edge of the
// UI flow graph.
var ErrIllegalTransition = errors.New("illegal state transition")

// legal lists the allowed successors of each state, excluding the
// "tracking lost" edge to Unknown which every state has.
var legal = map[State][]State{
	Unknown:     {MainMenu, InBattle, BattleEnded},
	MainMenu:    {InBattle},
	InBattle:    {BattleEnded},
	BattleEnded: {InBattle, MainMenu},
}

// CanTransition reports whether from -> to is an edge of the flow graph.
func CanTransition(from, to State) bool {
	if from == to {
		return false
	}
	if to == Unknown {
		return true
	}
	for _, s := range legal[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Observer is notified after every successful transition.
type Observer func(from, to State)

// Machine holds the current game state and enforces the flow graph.
type Machine struct {
	mu          sync.Mutex
	clock       quartz.Clock
	state       State
	battleStart time.Time
	observers   []Observer
}

// NewMachine creates a machine in the Unknown state.
func NewMachine(clock quartz.Clock) *Machine {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Machine{clock: clock}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers an observer. Observers run synchronously on the
// goroutine that performed the transition, after the lock is released.
func (m *Machine) Subscribe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Transition moves the machine to the given state. An illegal edge leaves the
// state unchanged and returns ErrIllegalTransition.
func (m *Machine) Transition(to State) (State, error) {
	m.mu.Lock()
	from := m.state
	if !CanTransition(from, to) {
		m.mu.Unlock()
		return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	m.state = to
	if to == InBattle {
		m.battleStart = m.clock.Now()
	}
	observers := append([]Observer(nil), m.observers...)
	m.mu.Unlock()

	for _, o := range observers {
		o(from, to)
	}
	return to, nil
}

// BattleStarted returns when the current or most recent battle was entered.
func (m *Machine) BattleStarted() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.battleStart
}

// BattleElapsed returns the time spent in the current battle, or zero when no
// battle has been entered.
func (m *Machine) BattleElapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.battleStart.IsZero() {
		return 0
	}
	return m.clock.Since(m.battleStart)
}
