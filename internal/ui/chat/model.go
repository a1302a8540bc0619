// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sofia-tui/internal/billing"
	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/payment"
	"github.com/jeranaias/sofia-tui/internal/pricing"
	"github.com/jeranaias/sofia-tui/internal/registry"
	"github.com/jeranaias/sofia-tui/internal/session"
	"github.com/jeranaias/sofia-tui/internal/ui/components"
	"github.com/jeranaias/sofia-tui/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Backend is the part of the API the chat view calls directly.
type Backend interface {
	GetChat(ctx context.Context, id model.ChatID) (*model.Conversation, error)
	Transactions(ctx context.Context, limit int) ([]model.Transaction, error)
	Models(ctx context.Context) ([]model.ModelPrice, error)
}

// Options tunes the view.
type Options struct {
	GlamourStyle     string
	ShowCostEstimate bool
	SidebarWidth     int
	BTCPriceUSD      float64
	ExportDir        string
}

// Deps bundles what the view drives. Registry, Balance, Payments and Prices
// may be nil; the matching features are then hidden.
type Deps struct {
	Controller *session.Controller
	Registry   *registry.Registry
	Balance    *billing.Tracker
	Payments   *payment.Machine
	Prices     *pricing.Table
	Backend    Backend
	Theme      *styles.Theme
	Options    Options
}

// NoticeTTL is how long a notice stays in the status bar.
const NoticeTTL = 5 * time.Second

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	deps Deps
	ctx  context.Context
	keys KeyMap

	// Components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	help     help.Model
	markdown *components.Markdown

	// Dimensions
	width  int
	height int

	// Conversation, mirrored from the controller
	messages    []model.Message
	title       string
	pending     bool
	sendEnabled bool

	// Sidebar
	listing registry.View
	items   []components.Item
	marks   registry.MarkState
	cursor  int
	focus   focusArea

	// Status
	balance   string
	notice    string
	noticeSeq int

	// Panels
	pay        *payment.Session
	panelTitle string
	panelBody  string
	showHelp   bool
}

// New creates the chat model. ctx bounds every backend call it starts.
func New(ctx context.Context, deps Deps) Model {
	if deps.Theme == nil {
		deps.Theme = styles.NewTheme()
	}
	style := deps.Options.GlamourStyle
	if style == "" || style == "auto" {
		style = deps.Theme.GlamourStyle()
	}

	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "Digite sua mensagem... (/help para comandos)"
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 8000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		deps:        deps,
		ctx:         ctx,
		keys:        keys,
		viewport:    viewport.New(80, 20),
		input:       ta,
		spinner:     sp,
		help:        help.New(),
		markdown:    components.NewMarkdown(style),
		sendEnabled: true,
		balance:     "…",
	}
	if deps.Registry != nil {
		m.setListing(deps.Registry.View())
	}
	if deps.Controller != nil {
		m.marks = deps.Controller.Marks().State()
	}
	if deps.Balance != nil {
		m.balance = deps.Balance.Display()
	}
	return m
}

// Init starts the cursor blink and the first data loads.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.deps.Registry != nil {
		cmds = append(cmds, m.refreshRegistry())
	}
	if m.deps.Balance != nil {
		cmds = append(cmds, m.refreshBalance())
	}
	if m.deps.Prices != nil && m.deps.Prices.Len() == 0 {
		cmds = append(cmds, m.loadPrices())
	}
	return tea.Batch(cmds...)
}

// Subscribe forwards registry, marks, balance and payment changes to b. The
// returned function unsubscribes.
func Subscribe(deps Deps, b *Bridge) func() {
	var unsubs []func()
	if deps.Registry != nil {
		unsubs = append(unsubs, deps.Registry.Subscribe(func(v registry.View) {
			b.Post(RegistryMsg{View: v})
		}))
	}
	if deps.Controller != nil {
		unsubs = append(unsubs, deps.Controller.Marks().Subscribe(func(s registry.MarkState) {
			b.Post(MarksMsg{State: s})
		}))
	}
	if deps.Balance != nil {
		unsubs = append(unsubs, deps.Balance.Subscribe(func(v int64) {
			b.Post(BalanceMsg{Display: billing.FormatBalance(v)})
		}))
	}
	if deps.Payments != nil {
		deps.Payments.OnChange(func(s payment.Session) {
			b.Post(PaymentMsg{Session: s})
		})
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// setListing stores a registry view and keeps the cursor in range.
func (m *Model) setListing(v registry.View) {
	m.listing = v
	m.items = components.SidebarItems(v)
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// cursorItem returns the sidebar row under the cursor.
func (m Model) cursorItem() (components.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return components.Item{}, false
	}
	return m.items[m.cursor], true
}
