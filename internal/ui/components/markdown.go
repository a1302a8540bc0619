// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"log"
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Markdown renders assistant replies through glamour. The renderer is rebuilt
// lazily when the wrap width changes.
type Markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	broken   bool
}

// NewMarkdown creates a renderer. style is a glamour standard style name
// ("dark", "light", "notty") or a path to a JSON style file.
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = "dark"
	}
	return &Markdown{style: style}
}

// SetWidth sets the wrap width.
func (m *Markdown) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width != m.width {
		m.width = width
		m.renderer = nil
		m.broken = false
	}
}

// Render renders text. If glamour fails the raw text is returned, so a
// reply is never lost to a rendering problem.
func (m *Markdown) Render(text string) string {
	r := m.ensure()
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		log.Printf("markdown: render: %v", err)
		return text
	}
	return strings.Trim(out, "\n")
}

func (m *Markdown) ensure() *glamour.TermRenderer {
	if m.renderer != nil || m.broken {
		return m.renderer
	}
	width := m.width
	if width == 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Printf("markdown: style %q: %v", m.style, err)
		m.broken = true
		return nil
	}
	m.renderer = r
	return r
}
