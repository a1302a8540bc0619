// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry keeps the in-memory projection of conversations and
// projects, and the status marks renderers subscribe to.
//
// The Registry is a cache with no write authority: it changes only when
// Refresh pulls a new listing from the backend (or WarmStart loads the last
// one from disk). Marks holds the active and selected conversation; at most
// one of each exists at any time.
//
// # Usage
//
//	reg := registry.New(client).WithCache(store)
//	reg.WarmStart(ctx)
//	if err := reg.Refresh(ctx); err != nil {
//	    log.Printf("refresh failed: %v", err)
//	}
//	view := reg.View()
//	for _, g := range view.Projects { ... }
//	for _, c := range view.Recent { ... }
package registry
