// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea front end of Sofia.
//
// The session controller drives the screen through a Bridge, which
// implements session.View by queueing Bubble Tea messages and delivering
// them to the running program in order. Controller calls are made from
// tea.Cmd goroutines, never from Update, so the event loop is never blocked
// on the network.
//
// # Layout
//
//	┌ sidebar ───────┐ title
//	│ Projetos       │ transcript (viewport)
//	│ ▾ Casa         │
//	│   [ ] ● chat   │ payment / info panel
//	│ Recentes       │ input (textarea)
//	└────────────────┘ status bar: model, balance, estimate
//
// # Commands
//
// Lines starting with "/" are commands; see Commands for the list.
package chat
