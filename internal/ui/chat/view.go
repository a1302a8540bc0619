// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sofia-tui/internal/pricing"
	"github.com/jeranaias/sofia-tui/internal/ui/components"
	"github.com/jeranaias/sofia-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Carregando..."
	}
	mainW := m.mainWidth()

	column := []string{m.renderHeader(mainW), m.viewport.View()}
	if panel := m.renderPanel(mainW); panel != "" {
		column = append(column, panel)
	}
	column = append(column, m.renderInput())
	body := lipgloss.JoinVertical(lipgloss.Left, column...)

	if sw := m.sidebarWidth(); sw > 0 {
		sidebar := components.Sidebar{
			Theme:   m.deps.Theme,
			Width:   sw,
			Height:  lipgloss.Height(body),
			Focused: m.focus == focusSidebar,
			Cursor:  m.cursor,
		}.Render(m.listing, m.items, m.marks)
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, body)
	}

	out := []string{body, m.renderStatus()}
	if m.showHelp {
		out = append(out, m.help.FullHelpView(m.keys.FullHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func (m Model) renderHeader(width int) string {
	t := m.deps.Theme
	title := m.title
	if title == "" {
		title = "Nova conversa"
	}
	brand := t.HeaderBrand.Render("Sofia")
	room := width - lipgloss.Width(brand) - 5
	return t.Header.Width(width).Render(brand + "  " + t.HeaderTitle.Render(util.TruncateWidth(title, room)))
}

// renderPanel draws the payment surface, or the info panel when no payment
// is open.
func (m Model) renderPanel(width int) string {
	if m.pay != nil {
		return components.PaymentPanel{Theme: m.deps.Theme, Width: width}.Render(*m.pay)
	}
	if m.panelBody == "" {
		return ""
	}
	t := m.deps.Theme
	content := t.PaymentTitle.Render(m.panelTitle) + "\n" + m.panelBody + "\n" +
		t.MutedStyle.Render("Esc para fechar")
	return t.Sidebar.Width(width - 2).Render(content)
}

func (m Model) renderInput() string {
	style := m.deps.Theme.InputBorder
	if !m.sendEnabled || m.focus != focusInput {
		style = m.deps.Theme.InputDisabled
	}
	return style.Render(m.input.View())
}

func (m Model) renderStatus() string {
	st := m.deps.Controller.State()
	bar := components.StatusBar{
		Theme:   m.deps.Theme,
		Width:   m.width,
		Model:   st.Model,
		Balance: m.balance,
		Notice:  m.notice,
	}
	if st.Attachment != nil {
		bar.Attachment = st.Attachment.Name
	}
	if m.deps.Options.ShowCostEstimate {
		bar.Estimate, bar.HasEstimate = m.estimate(st.Model)
	}
	return bar.Render()
}

// estimate prices the current draft. Commands are never priced.
func (m Model) estimate(modelID string) (int64, bool) {
	draft := m.input.Value()
	if IsCommand(draft) || strings.TrimSpace(draft) == "" {
		return 0, false
	}
	return pricing.Estimate(draft, modelID, m.deps.Prices)
}
