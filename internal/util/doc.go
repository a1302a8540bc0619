// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared across sofia-tui.
//
// # Key Functions
//
// Text:
//   - TruncateRunes / TruncateRunesNoEllipsis: UTF-8 safe truncation
//   - TruncateWidth / StringWidth: display-width aware truncation for the sidebar
//   - TitleFromText: derives a conversation title from the first user message
//
// Files:
//   - AtomicWriteFile: crash-safe writes for config, token and exports
//
// # Usage
//
//	title := util.TitleFromText(text, 50)
//	label := util.TruncateWidth(name, 24)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
