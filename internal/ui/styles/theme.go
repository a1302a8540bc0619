// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components of the TUI.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderBrand lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar        lipgloss.Style
	SidebarFocused lipgloss.Style
	SectionTitle   lipgloss.Style
	ProjectName    lipgloss.Style
	ChatItem       lipgloss.Style
	ChatActive     lipgloss.Style
	ChatCursor     lipgloss.Style
	ChatMeta       lipgloss.Style
	StaleBadge     lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	ErrorText      lipgloss.Style
	Timestamp      lipgloss.Style
	Typing         lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputBorder   lipgloss.Style
	InputDisabled lipgloss.Style
	StatusBar     lipgloss.Style
	StatusKey     lipgloss.Style
	StatusValue   lipgloss.Style
	Estimate      lipgloss.Style
	Notice        lipgloss.Style

	// ==========================================================================
	// PAYMENT PANEL
	// ==========================================================================

	PaymentBox     lipgloss.Style
	PaymentTitle   lipgloss.Style
	PaymentInvoice lipgloss.Style
	PaymentStatus  lipgloss.Style

	// ==========================================================================
	// STATUS INDICATORS
	// ==========================================================================

	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	MutedStyle   lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	profile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// GlamourStyle returns the glamour standard style matching the background,
// for callers configured with "auto".
func (t *Theme) GlamourStyle() string {
	if t.ColorProfile == termenv.Ascii {
		return "notty"
	}
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)
	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Violet)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarFocused = t.Sidebar.
		BorderForeground(Violet)
	t.SectionTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		MarginTop(1)
	t.ProjectName = lipgloss.NewStyle().
		Bold(true).
		Foreground(Gold)
	t.ChatItem = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.ChatActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(Violet)
	t.ChatCursor = lipgloss.NewStyle().
		Background(SelectionBg)
	t.ChatMeta = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StaleBadge = lipgloss.NewStyle().
		Foreground(Warning).
		Italic(true)

	// Transcript
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sky)
	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Violet)
	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)
	t.ErrorText = lipgloss.NewStyle().
		Foreground(Danger).
		PaddingLeft(2)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.Typing = lipgloss.NewStyle().
		Foreground(Violet).
		Italic(true)

	// Input and status
	t.InputBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Sky)
	t.InputDisabled = t.InputBorder.
		BorderForeground(Overlay)
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StatusValue = lipgloss.NewStyle().
		Bold(true).
		Foreground(Gold)
	t.Estimate = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)
	t.Notice = lipgloss.NewStyle().
		Foreground(Success)

	// Payment panel
	t.PaymentBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Gold).
		Padding(0, 2)
	t.PaymentTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Gold)
	t.PaymentInvoice = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.PaymentStatus = lipgloss.NewStyle().
		Bold(true)

	// Status indicators
	t.SuccessStyle = lipgloss.NewStyle().Foreground(Success).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(Danger).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	t.MutedStyle = lipgloss.NewStyle().Foreground(TextMuted)
}
