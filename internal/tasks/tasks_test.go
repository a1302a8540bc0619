// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not finish")
	}
}

func TestEvery_TicksUntilFalse(t *testing.T) {
	var calls atomic.Int32
	h := Every(context.Background(), 5*time.Millisecond, func(context.Context) bool {
		return calls.Add(1) < 3
	})
	waitDone(t, h)

	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 ticks, got %d", got)
	}
	if h.Cancelled() {
		t.Error("Handle that stopped itself should not report Cancelled")
	}
}

func TestEvery_CancelStopsTicks(t *testing.T) {
	var calls atomic.Int32
	h := Every(context.Background(), 5*time.Millisecond, func(context.Context) bool {
		calls.Add(1)
		return true
	})
	time.Sleep(20 * time.Millisecond)
	h.Cancel()
	h.Cancel() // idempotent
	waitDone(t, h)

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != after {
		t.Error("Tick ran after the handle finished")
	}
	if !h.Cancelled() {
		t.Error("Expected Cancelled() after Cancel()")
	}
}

func TestEvery_CancelFromInsideTick(t *testing.T) {
	var h *Handle
	ready := make(chan struct{})
	h = Every(context.Background(), time.Millisecond, func(context.Context) bool {
		<-ready
		h.Cancel()
		return true
	})
	close(ready)
	waitDone(t, h)
}

func TestEvery_ParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := Every(ctx, time.Millisecond, func(context.Context) bool { return true })
	cancel()
	waitDone(t, h)
}

func TestHandle_NilSafe(t *testing.T) {
	var h *Handle
	h.Cancel()
	if !h.Cancelled() {
		t.Error("nil handle should report Cancelled")
	}
}

func TestSlot_StartReplacesPrevious(t *testing.T) {
	var slot Slot
	var first, second atomic.Int32

	h1 := slot.Start(context.Background(), 2*time.Millisecond, func(context.Context) bool {
		first.Add(1)
		return true
	})
	h2 := slot.Start(context.Background(), 2*time.Millisecond, func(context.Context) bool {
		second.Add(1)
		return true
	})
	waitDone(t, h1)

	if !h1.Cancelled() {
		t.Error("First handle should be cancelled by the second Start")
	}
	if slot.Active() != h2 {
		t.Error("Slot should hold the newest handle")
	}

	time.Sleep(20 * time.Millisecond)
	if second.Load() == 0 {
		t.Error("Second job never ticked")
	}
	if !slot.Running() {
		t.Error("Slot should report running")
	}

	if !slot.Stop() {
		t.Error("Stop should report a running job")
	}
	waitDone(t, h2)
	if slot.Stop() {
		t.Error("Second Stop should report nothing running")
	}
}

func TestSlot_StopIfIgnoresStaleHandle(t *testing.T) {
	var slot Slot
	tick := func(context.Context) bool { return true }

	old := slot.Start(context.Background(), time.Hour, tick)
	current := slot.Start(context.Background(), time.Hour, tick)

	slot.StopIf(old)
	if slot.Active() != current {
		t.Fatal("StopIf with a stale handle must not touch the current job")
	}

	slot.StopIf(current)
	if slot.Active() != nil {
		t.Error("StopIf with the current handle should clear the slot")
	}
	waitDone(t, current)
}
