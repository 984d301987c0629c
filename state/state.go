package state

import (
	"errors"
	"fmt"
)

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Table 状态转换表. A table is built once and then only read, so machines
// copied from each other can share it.
type Table[S comparable] struct {
	transitions map[S]map[S]struct{} // fromState -> toState
}

func NewTable[S comparable]() *Table[S] {
	return &Table[S]{
		transitions: make(map[S]map[S]struct{}),
	}
}

// AddTransition allows moving from one state to another.
func (t *Table[S]) AddTransition(from, to S) *Table[S] {
	if _, exists := t.transitions[from]; !exists {
		t.transitions[from] = make(map[S]struct{})
	}
	t.transitions[from][to] = struct{}{}
	return t
}

// Allowed reports whether from -> to is in the table.
func (t *Table[S]) Allowed(from, to S) bool {
	if t == nil {
		return false
	}
	_, ok := t.transitions[from][to]
	return ok
}

// Machine 状态机. It is a small value: copying a Machine snapshots its
// current state.
type Machine[S comparable] struct {
	current S
	table   *Table[S]
}

func NewMachine[S comparable](table *Table[S], initial S) Machine[S] {
	return Machine[S]{current: initial, table: table}
}

func (m Machine[S]) Current() S {
	return m.current
}

func (m Machine[S]) Can(to S) bool {
	return m.table.Allowed(m.current, to)
}

func (m *Machine[S]) ChangeState(to S) error {
	if !m.Can(to) {
		return fmt.Errorf("%w: %v -> %v", ErrTransitionNotAllowed, m.current, to)
	}
	m.current = to
	return nil
}
