// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// print.go - Line-mode rendering shared by chat, show and the listings.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/ui/components"
	"github.com/jeranaias/sofia-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().Foreground(styles.Sky).Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(styles.Violet).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(styles.Gold).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(styles.TextMuted)
	okStyle     = lipgloss.NewStyle().Foreground(styles.Success)
	warnStyle   = lipgloss.NewStyle().Foreground(styles.Warning)
	errStyle    = lipgloss.NewStyle().Foreground(styles.Danger)
)

// codeStyle is the chroma style used by --plain output.
const codeStyle = "monokai"

// =============================================================================
// MESSAGE PRINTER
// =============================================================================

// printer writes transcript messages to a line-oriented terminal.
type printer struct {
	out   io.Writer
	md    *components.Markdown
	color bool
}

// newPrinter renders assistant replies through glamour, or with plain
// highlighted code blocks when plain is set.
func newPrinter(out io.Writer, glamourStyle string, plain, color bool) *printer {
	p := &printer{out: out, color: color}
	if !plain {
		if !color {
			glamourStyle = "notty"
		}
		p.md = components.NewMarkdown(glamourStyle)
		p.md.SetWidth(TerminalWidth())
	}
	return p
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Message prints one message with its header line.
func (p *printer) Message(msg model.Message) {
	header := msg.Role.DisplayName()
	if !msg.Timestamp.IsZero() {
		header += " " + p.style(mutedStyle, msg.Timestamp.Local().Format(components.TimeLayout))
	}

	switch {
	case msg.IsError:
		fmt.Fprintln(p.out, p.style(errStyle, msg.Content))
		fmt.Fprintln(p.out)
		return
	case msg.IsUser():
		fmt.Fprintln(p.out, p.style(promptStyle, header))
		fmt.Fprintln(p.out, msg.Content)
	default:
		fmt.Fprintln(p.out, p.style(labelStyle, header))
		fmt.Fprintln(p.out, p.body(msg.Content))
	}
	fmt.Fprintln(p.out)
}

func (p *printer) body(content string) string {
	if p.md != nil {
		return strings.TrimRight(p.md.Render(content), "\n")
	}
	if p.color {
		return components.HighlightFences(content, codeStyle)
	}
	return content
}

// Title prints a conversation heading.
func (p *printer) Title(title string) {
	fmt.Fprintln(p.out, p.style(titleStyle, "── "+title+" ──"))
}

// Info prints a muted status line.
func (p *printer) Info(text string) {
	fmt.Fprintln(p.out, p.style(mutedStyle, text))
}
