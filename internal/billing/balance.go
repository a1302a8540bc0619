// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package billing

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// BALANCE TRACKER
// =============================================================================

// BalanceSource fetches the current token balance.
type BalanceSource interface {
	Balance(ctx context.Context) (int64, error)
}

// Tracker caches the last known balance and notifies subscribers when it
// changes.
type Tracker struct {
	src BalanceSource

	mu        sync.Mutex
	balance   int64
	known     bool
	updatedAt time.Time
	subs      map[int]func(int64)
	nextID    int
}

// NewTracker creates a tracker reading from src.
func NewTracker(src BalanceSource) *Tracker {
	return &Tracker{src: src, subs: make(map[int]func(int64))}
}

// Refresh fetches the balance. On failure the last known value is kept.
func (t *Tracker) Refresh(ctx context.Context) (int64, error) {
	b, err := t.src.Balance(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh balance: %w", err)
	}
	t.Set(b)
	return b, nil
}

// Set records a balance, e.g. one reported alongside a reply.
func (t *Tracker) Set(b int64) {
	t.mu.Lock()
	changed := !t.known || t.balance != b
	t.balance = b
	t.known = true
	t.updatedAt = time.Now()
	var fns []func(int64)
	if changed {
		for _, fn := range t.subs {
			fns = append(fns, fn)
		}
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(b)
	}
}

// Balance returns the last known balance and whether one is known.
func (t *Tracker) Balance() (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance, t.known
}

// UpdatedAt returns when the balance was last set.
func (t *Tracker) UpdatedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updatedAt
}

// Display returns the formatted balance, or "…" before the first fetch.
func (t *Tracker) Display() string {
	b, ok := t.Balance()
	if !ok {
		return "…"
	}
	return FormatBalance(b)
}

// Subscribe registers fn to receive every balance change.
func (t *Tracker) Subscribe(fn func(int64)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}
