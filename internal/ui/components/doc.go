// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the rendering pieces of the Sofia TUI: the
// conversation sidebar, the transcript (markdown through glamour), the
// status bar and the recharge panel.
//
// Components are plain values with a Render method. They hold no state of
// their own beyond what the chat model passes in on each frame.
package components
