// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/ui/styles"
)

// TimeLayout is how message times are shown.
const TimeLayout = "15:04"

// Transcript renders a conversation as one string for the viewport.
type Transcript struct {
	Theme    *styles.Theme
	Markdown *Markdown
	Width    int
}

// Render draws msgs, followed by the typing indicator when pending.
func (t Transcript) Render(msgs []model.Message, pending bool, spinnerFrame string) string {
	if len(msgs) == 0 && !pending {
		return t.Theme.MutedStyle.Render("Comece uma conversa digitando abaixo.")
	}

	if t.Markdown != nil {
		t.Markdown.SetWidth(t.Width - 2)
	}
	wrap := lipgloss.NewStyle().Width(max(t.Width-2, 10))

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(t.header(msg))
		b.WriteString("\n")
		b.WriteString(t.body(msg, wrap))
	}

	if pending {
		if len(msgs) > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(t.Theme.Typing.Render(spinnerFrame + " Sofia está digitando..."))
	}
	return b.String()
}

func (t Transcript) header(msg model.Message) string {
	label := t.Theme.AssistantLabel
	if msg.IsUser() {
		label = t.Theme.UserLabel
	}
	h := label.Render(msg.Role.DisplayName())
	if !msg.Timestamp.IsZero() {
		h += " " + t.Theme.Timestamp.Render(msg.Timestamp.Local().Format(TimeLayout))
	}
	return h
}

func (t Transcript) body(msg model.Message, wrap lipgloss.Style) string {
	switch {
	case msg.IsError:
		return t.Theme.ErrorText.Render(wrap.Render(msg.Content))
	case msg.IsUser() || t.Markdown == nil:
		return t.Theme.UserText.Render(wrap.Render(msg.Content))
	default:
		return t.Markdown.Render(msg.Content)
	}
}
