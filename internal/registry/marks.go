// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"sync"

	"github.com/jeranaias/sofia-tui/internal/model"
)

// =============================================================================
// STATUS MARKS
// =============================================================================

// Status is the set of marks on one conversation.
type Status uint8

const (
	StatusActive Status = 1 << iota
	StatusSelected
)

// Has reports whether s includes flag.
func (s Status) Has(flag Status) bool { return s&flag != 0 }

// MarkState is a consistent view of every mark.
type MarkState struct {
	Active   model.ChatID
	Selected model.ChatID
}

// Status returns the marks on id.
func (m MarkState) Status(id model.ChatID) Status {
	var s Status
	if !id.IsZero() && id == m.Active {
		s |= StatusActive
	}
	if !id.IsZero() && id == m.Selected {
		s |= StatusSelected
	}
	return s
}

// Marks stores which conversation is active and which is selected. Each
// mark is held by at most one conversation; moving it is a single step, so
// no observer ever sees two conversations holding the same mark.
type Marks struct {
	mu    sync.Mutex
	state MarkState

	subs   map[int]func(MarkState)
	nextID int
}

// NewMarks creates an empty mark store.
func NewMarks() *Marks {
	return &Marks{subs: make(map[int]func(MarkState))}
}

// State returns the current marks.
func (m *Marks) State() MarkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns the marks on id.
func (m *Marks) Status(id model.ChatID) Status {
	return m.State().Status(id)
}

// Active returns the active conversation, or zero.
func (m *Marks) Active() model.ChatID {
	return m.State().Active
}

// SetActive moves the active mark to id. A zero id clears it.
func (m *Marks) SetActive(id model.ChatID) {
	m.update(func(s *MarkState) bool {
		if s.Active == id {
			return false
		}
		s.Active = id
		return true
	})
}

// ClearActiveIf clears the active mark only when id holds it.
func (m *Marks) ClearActiveIf(id model.ChatID) {
	m.update(func(s *MarkState) bool {
		if s.Active != id || id.IsZero() {
			return false
		}
		s.Active = 0
		return true
	})
}

// ToggleSelected selects id, or clears the selection when id already holds
// it. Selecting one conversation unselects every other.
func (m *Marks) ToggleSelected(id model.ChatID) {
	m.update(func(s *MarkState) bool {
		if s.Selected == id {
			s.Selected = 0
		} else {
			s.Selected = id
		}
		return true
	})
}

// ClearSelected drops the selection, as a click outside any item does.
func (m *Marks) ClearSelected() {
	m.update(func(s *MarkState) bool {
		if s.Selected.IsZero() {
			return false
		}
		s.Selected = 0
		return true
	})
}

// Subscribe registers fn to receive the marks after every change. The
// returned function unsubscribes.
func (m *Marks) Subscribe(fn func(MarkState)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Marks) update(apply func(*MarkState) bool) {
	m.mu.Lock()
	if !apply(&m.state) {
		m.mu.Unlock()
		return
	}
	state := m.state
	fns := make([]func(MarkState), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
