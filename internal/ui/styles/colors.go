// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// BRAND COLORS
// =============================================================================

// Violet is Sofia's accent: assistant messages, the active conversation.
var Violet = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"}

// Sky marks user messages and the input focus ring.
var Sky = lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"}

// Gold is used for balances, prices and lightning invoices.
var Gold = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

var (
	Success = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	Danger  = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#FB7185"}
	Warning = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FDBA74"}
)

// =============================================================================
// SURFACES AND TEXT
// =============================================================================

var (
	Surface    = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
	SurfaceDim = lipgloss.AdaptiveColor{Light: "#F4F4F5", Dark: "#181825"}
	Overlay    = lipgloss.AdaptiveColor{Light: "#E4E4E7", Dark: "#313244"}

	// SelectionBg highlights the sidebar cursor row.
	SelectionBg = lipgloss.AdaptiveColor{Light: "#DDD6FE", Dark: "#3B3655"}
)

var (
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#18181B", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#52525B", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#A1A1AA", Dark: "#6C7086"}
	TextInverse   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
)

// =============================================================================
// MARKERS
// =============================================================================

// Sidebar markers. Shapes carry the meaning so the list stays readable
// without color.
const (
	MarkerActive     = "●"
	MarkerInactive   = " "
	MarkerChecked    = "[x]"
	MarkerUnchecked  = "[ ]"
	MarkerCollapsed  = "▸"
	MarkerExpanded   = "▾"
	MarkerPending    = "…"
	MarkerAttachment = "📎"
)
