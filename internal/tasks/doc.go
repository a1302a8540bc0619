// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides cancellable periodic jobs for background polling.
//
// # Key Types
//
//   - Handle: A running periodic job that can be cancelled exactly once
//   - Slot: Holds at most one active Handle; starting a new one cancels the old
//
// # Usage
//
// Poll until the job stops itself or is cancelled:
//
//	var slot tasks.Slot
//	h := slot.Start(ctx, 3*time.Second, func(ctx context.Context) bool {
//	    paid, _ := client.CheckPayment(ctx, hash)
//	    return !paid // keep polling until paid
//	})
//	<-h.Done()
package tasks
