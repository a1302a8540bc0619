// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// PERIODIC HANDLE
// =============================================================================

// TickFunc is called once per interval. Returning false stops the job.
// The context is cancelled when the handle is cancelled.
type TickFunc func(ctx context.Context) bool

// Handle is a running periodic job.
type Handle struct {
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
	cancelled chan struct{}
}

// Every starts fn on a ticker with the given interval. The first call happens
// after one interval. Calls never overlap: a slow tick delays the next one.
func Every(ctx context.Context, interval time.Duration, fn TickFunc) *Handle {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel:    cancel,
		done:      make(chan struct{}),
		cancelled: make(chan struct{}),
	}
	go h.loop(ctx, interval, fn)
	return h
}

func (h *Handle) loop(ctx context.Context, interval time.Duration, fn TickFunc) {
	defer close(h.done)
	defer h.cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !fn(ctx) {
				return
			}
		}
	}
}

// Cancel stops the job. It is safe to call more than once and from inside
// the tick function.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		close(h.cancelled)
		h.cancel()
	})
}

// Cancelled reports whether Cancel was called.
func (h *Handle) Cancelled() bool {
	if h == nil {
		return true
	}
	select {
	case <-h.cancelled:
		return true
	default:
		return false
	}
}

// Done is closed once the loop has exited and no further tick will run.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the loop exits or ctx ends.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
