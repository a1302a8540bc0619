// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the Sofia TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Theme bundles the styles used by the chat view and detects the
terminal profile through termenv.

# Markers

Sidebar state is drawn with shapes as well as color:

	●    active conversation
	[x]  selected conversation
	▸ ▾  collapsed / expanded project

# Usage

	theme := styles.NewTheme()
	line := theme.ChatActive.Render(styles.MarkerActive + " " + title)
*/
package styles
