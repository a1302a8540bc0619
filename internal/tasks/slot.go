// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// SINGLE-ACTIVE SLOT
// =============================================================================

// Slot holds at most one periodic job. The zero value is ready to use.
type Slot struct {
	mu     sync.Mutex
	active *Handle
}

// Start cancels the current job, if any, and starts a new one in its place.
func (s *Slot) Start(ctx context.Context, interval time.Duration, fn TickFunc) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active.Cancel()
	s.active = Every(ctx, interval, fn)
	return s.active
}

// Stop cancels the current job. It reports whether one was running.
func (s *Slot) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return false
	}
	running := !s.active.Cancelled()
	s.active.Cancel()
	s.active = nil
	return running
}

// StopIf cancels the current job only when it is h. Tick functions use it to
// retire themselves without touching a newer job.
func (s *Slot) StopIf(h *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == h && h != nil {
		h.Cancel()
		s.active = nil
	}
}

// Active returns the current job, or nil.
func (s *Slot) Active() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Running reports whether the current job is still looping.
func (s *Slot) Running() bool {
	s.mu.Lock()
	h := s.active
	s.mu.Unlock()

	if h == nil {
		return false
	}
	select {
	case <-h.Done():
		return false
	default:
		return !h.Cancelled()
	}
}
