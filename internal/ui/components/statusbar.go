// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sofia-tui/internal/billing"
	"github.com/jeranaias/sofia-tui/internal/ui/styles"
)

// StatusBar is the bottom line: model, balance, cost estimate and the
// pending attachment, with a transient notice on the right.
type StatusBar struct {
	Theme *styles.Theme
	Width int

	Model   string
	Balance string
	// Estimate is the estimated cost of the draft in tokens; hidden when
	// HasEstimate is false.
	Estimate    int64
	HasEstimate bool
	Attachment  string
	Notice      string
}

// Render draws the bar.
func (s StatusBar) Render() string {
	t := s.Theme
	parts := []string{
		t.StatusKey.Render("modelo ") + t.StatusValue.Render(s.Model),
		t.StatusKey.Render("saldo ") + t.StatusValue.Render(s.Balance),
	}
	if s.HasEstimate {
		parts = append(parts, t.Estimate.Render("~"+billing.FormatTokens(s.Estimate)+" tokens"))
	}
	if s.Attachment != "" {
		parts = append(parts, styles.MarkerAttachment+" "+s.Attachment)
	}
	left := strings.Join(parts, t.StatusKey.Render("  │  "))

	right := ""
	if s.Notice != "" {
		right = t.Notice.Render(s.Notice)
	}

	gap := s.Width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Not enough room: the notice wins over the estimate line.
		if right != "" {
			return t.StatusBar.Width(s.Width).Render(right)
		}
		gap = 1
	}
	return t.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}
