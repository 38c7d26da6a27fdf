package conversation

import "fmt"

// Machine tracks a conversation's current state and validates
// transitions against a shared transition table.
type Machine struct {
	current State
	table   map[State]map[Trigger]State
}

// Builder assembles a transition table for conversation machines.
type Builder struct {
	table map[State]map[Trigger]State
}

// NewBuilder creates an empty transition table builder.
func NewBuilder() *Builder {
	return &Builder{table: make(map[State]map[Trigger]State)}
}

// Permit allows trigger to move from state to target.
func (b *Builder) Permit(from State, trigger Trigger, to State) *Builder {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", from))
	}
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	if b.table[from] == nil {
		b.table[from] = make(map[Trigger]State)
	}
	b.table[from][trigger] = to
	return b
}

// Build creates a machine positioned at the given initial state. The
// transition table is shared across machines built from the same
// builder; machines only carry their own current state.
func (b *Builder) Build(initial State) (*Machine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, initial)
	}
	return &Machine{current: initial, table: b.table}, nil
}

// State returns the current state.
func (m *Machine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state.
func (m *Machine) CanFire(trigger Trigger) bool {
	_, ok := m.table[m.current][trigger]
	return ok
}

// Fire executes the trigger, moving to the configured target state.
func (m *Machine) Fire(trigger Trigger) error {
	to, ok := m.table[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = to
	return nil
}

// PermittedTriggers returns the triggers that can fire in the current
// state.
func (m *Machine) PermittedTriggers() []Trigger {
	transitions := m.table[m.current]
	triggers := make([]Trigger, 0, len(transitions))
	for t := range transitions {
		triggers = append(triggers, t)
	}
	return triggers
}
