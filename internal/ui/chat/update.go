// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sofia-tui/internal/payment"
	"github.com/jeranaias/sofia-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		cmd, handled := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if !handled && m.focus == focusInput {
			var c tea.Cmd
			m.input, c = m.input.Update(msg)
			cmds = append(cmds, c)
		}

	// Controller view messages
	case ClearMessagesMsg:
		m.messages = nil
		m.refreshTranscript(true)
	case SetMessagesMsg:
		m.messages = msg.Messages
		m.refreshTranscript(true)
	case AppendMessageMsg:
		m.messages = append(m.messages, msg.Message)
		m.refreshTranscript(true)
	case TitleMsg:
		m.title = msg.Title
	case PendingMsg:
		wasPending := m.pending
		m.pending = msg.Pending
		m.refreshTranscript(true)
		if m.pending && !wasPending {
			cmds = append(cmds, m.spinner.Tick)
		}
	case SendEnabledMsg:
		m.sendEnabled = msg.Enabled
	case NoticeMsg:
		cmds = append(cmds, m.setNotice(msg.Text))

	// Subscriptions
	case RegistryMsg:
		m.setListing(msg.View)
	case MarksMsg:
		m.marks = msg.State
	case BalanceMsg:
		m.balance = msg.Display
	case PaymentMsg:
		cmds = append(cmds, m.handlePayment(msg.Session))

	// Internal
	case panelMsg:
		m.panelTitle, m.panelBody = msg.title, msg.body
	case restoreInputMsg:
		if m.input.Value() == "" {
			m.input.SetValue(msg.text)
		}
		if msg.enable {
			m.sendEnabled = true
		}
		if msg.notice != "" {
			cmds = append(cmds, m.setNotice(msg.notice))
		}
	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
	case quitMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		if m.pending {
			var c tea.Cmd
			m.spinner, c = m.spinner.Update(msg)
			m.refreshTranscript(false)
			cmds = append(cmds, c)
		}

	default:
		var c tea.Cmd
		m.input, c = m.input.Update(msg)
		cmds = append(cmds, c)
	}

	m.layout()
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEYS
// =============================================================================

// handleKey processes global and focus-specific bindings. handled reports
// whether the key was consumed.
func (m *Model) handleKey(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return nil, true
	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()
		return nil, true
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil, true
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil, true
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg), true
	}

	switch {
	case key.Matches(msg, m.keys.Newline):
		return nil, false
	case key.Matches(msg, m.keys.Submit):
		return m.submit(), true
	case msg.Type == tea.KeyEsc:
		// Esc in the input closes whatever panel is open.
		m.panelTitle, m.panelBody = "", ""
		m.showHelp = false
		return nil, true
	}
	return nil, false
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusSidebar
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		it, ok := m.cursorItem()
		if !ok {
			return nil
		}
		if it.Kind == components.ItemProject {
			return m.toggleProject(it.Project)
		}
		m.focus = focusInput
		m.input.Focus()
		return m.selectConversation(it.Chat)
	case key.Matches(msg, m.keys.Toggle):
		if it, ok := m.cursorItem(); ok && it.Kind == components.ItemChat {
			m.deps.Controller.ToggleSelected(it.Chat)
		}
	case key.Matches(msg, m.keys.Clear):
		m.deps.Controller.ClearSelection()
	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.cursorItem(); ok && it.Kind == components.ItemChat {
			return m.deleteConversation(it.Chat)
		}
	}
	return nil
}

// submit sends the draft, or runs it when it is a command.
func (m *Model) submit() tea.Cmd {
	text := m.input.Value()
	if IsCommand(text) {
		m.input.Reset()
		return m.runCommand(text)
	}
	if !m.sendEnabled {
		return nil
	}
	hasAttachment := m.deps.Controller.State().Attachment != nil
	if strings.TrimSpace(text) == "" && !hasAttachment {
		return nil
	}
	m.input.Reset()
	m.sendEnabled = false
	return m.sendMessage(text)
}

// =============================================================================
// PAYMENT
// =============================================================================

func (m *Model) handlePayment(s payment.Session) tea.Cmd {
	switch s.Status {
	case payment.StatusCredited:
		m.pay = nil
		return m.setNotice(components.StatusText(s))
	case payment.StatusCancelled:
		m.pay = nil
		return m.setNotice(components.StatusText(s))
	default:
		m.pay = &s
		return nil
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// setNotice shows text and schedules its removal.
func (m *Model) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	seq := m.noticeSeq
	return tea.Tick(NoticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// refreshTranscript re-renders the transcript into the viewport.
func (m *Model) refreshTranscript(scroll bool) {
	tr := components.Transcript{
		Theme:    m.deps.Theme,
		Markdown: m.markdown,
		Width:    m.viewport.Width,
	}
	m.viewport.SetContent(tr.Render(m.messages, m.pending, m.spinner.View()))
	if scroll {
		m.viewport.GotoBottom()
	}
}

// layout sizes the components for the current window and panels.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	mainW := m.mainWidth()

	m.input.SetWidth(mainW - 2)
	m.help.Width = m.width

	used := 1 /* header */ + 1 /* status */ + m.input.Height() + 2 /* input border */
	if panel := m.renderPanel(mainW); panel != "" {
		used += lipgloss.Height(panel)
	}
	if m.showHelp {
		used += lipgloss.Height(m.help.FullHelpView(m.keys.FullHelp()))
	}

	height := m.height - used
	if height < 3 {
		height = 3
	}
	widthChanged := m.viewport.Width != mainW
	m.viewport.Width = mainW
	m.viewport.Height = height
	if widthChanged {
		m.refreshTranscript(false)
	}
}

// sidebarWidth returns 0 when the window is too narrow for a sidebar.
func (m Model) sidebarWidth() int {
	w := m.deps.Options.SidebarWidth
	if w <= 0 {
		w = 30
	}
	if m.width < w+40 {
		return 0
	}
	return w
}

func (m Model) mainWidth() int {
	return m.width - m.sidebarWidth()
}
