// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/api/apitest"
	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/payment"
	"github.com/jeranaias/sofia-tui/internal/pricing"
	"github.com/jeranaias/sofia-tui/internal/registry"
	"github.com/jeranaias/sofia-tui/internal/session"
	"github.com/jeranaias/sofia-tui/internal/ui/styles"
)

// newTestModel returns a sized model whose controller has no backend. The
// tests below only exercise paths that never reach the network.
func newTestModel(t *testing.T) (Model, *session.Controller) {
	t.Helper()
	ctrl := session.NewController(nil, nil, session.DefaultOptions())
	m := New(context.Background(), Deps{
		Controller: ctrl,
		Theme:      styles.NewTheme(),
		Options:    Options{GlamourStyle: "notty", SidebarWidth: 30},
	})
	m = step(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, ctrl
}

func step(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func typeAndSubmit(m Model, text string) (Model, tea.Cmd) {
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestUpdate_ControllerMessages(t *testing.T) {
	m, _ := newTestModel(t)

	m = step(m, TitleMsg{Title: "Receitas"})
	m = step(m, AppendMessageMsg{Message: model.NewUserMessage("Olá")})
	m = step(m, PendingMsg{Pending: true})

	if m.title != "Receitas" || len(m.messages) != 1 || !m.pending {
		t.Fatalf("state = title %q, %d messages, pending %v", m.title, len(m.messages), m.pending)
	}
	if view := m.viewport.View(); !strings.Contains(view, "Olá") {
		t.Errorf("viewport missing message:\n%s", view)
	}

	m = step(m, ClearMessagesMsg{})
	if len(m.messages) != 0 {
		t.Error("ClearMessagesMsg left messages behind")
	}
}

func TestUpdate_ModelCommand(t *testing.T) {
	m, ctrl := newTestModel(t)

	m, _ = typeAndSubmit(m, "/model deepseek")

	if ctrl.Model() != "deepseek" {
		t.Errorf("model = %q", ctrl.Model())
	}
	if m.notice != "Modelo: deepseek" {
		t.Errorf("notice = %q", m.notice)
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
}

func TestUpdate_UnknownCommand(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = typeAndSubmit(m, "/voar")
	if !strings.Contains(m.notice, "desconhecido") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestUpdate_SubmitWhileDisabledKeepsDraft(t *testing.T) {
	m, _ := newTestModel(t)
	m = step(m, SendEnabledMsg{Enabled: false})

	m, cmd := typeAndSubmit(m, "oi")
	if cmd != nil {
		if msg := cmd(); msg != nil {
			t.Errorf("submit while disabled produced %#v", msg)
		}
	}
	if m.input.Value() != "oi" {
		t.Errorf("draft lost: %q", m.input.Value())
	}
}

func TestUpdate_SidebarSelection(t *testing.T) {
	m, ctrl := newTestModel(t)

	chats := []model.ChatSummary{{ID: 1, Name: "um"}, {ID: 2, Name: "dois"}}
	m = step(m, RegistryMsg{View: registry.View{Recent: chats}})
	if len(m.items) != 2 {
		t.Fatalf("items = %d", len(m.items))
	}

	m = step(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusSidebar {
		t.Fatal("Tab did not focus the sidebar")
	}
	m = step(m, tea.KeyMsg{Type: tea.KeyDown})
	m = step(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	if got := ctrl.Marks().State().Selected; got != 2 {
		t.Errorf("selected = %s, want 2", got)
	}

	m = step(m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := ctrl.Marks().State().Selected; !got.IsZero() {
		t.Errorf("Esc left %s selected", got)
	}
}

func TestUpdate_RegistryShrinkClampsCursor(t *testing.T) {
	m, _ := newTestModel(t)
	many := registry.View{Recent: []model.ChatSummary{{ID: 1}, {ID: 2}, {ID: 3}}}
	m = step(m, RegistryMsg{View: many})
	m.cursor = 2
	m = step(m, RegistryMsg{View: registry.View{Recent: []model.ChatSummary{{ID: 1}}}})
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestUpdate_PaymentSurface(t *testing.T) {
	m, _ := newTestModel(t)

	s := payment.Session{Reference: "h", Package: "light", Tokens: 1_250_000, USD: 10, Status: payment.StatusPolling}
	m = step(m, PaymentMsg{Session: s})
	if m.pay == nil {
		t.Fatal("payment surface not opened")
	}

	s.Status = payment.StatusCredited
	m = step(m, PaymentMsg{Session: s})
	if m.pay != nil {
		t.Error("payment surface not closed after credit")
	}
	if !strings.Contains(m.notice, "creditados") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestUpdate_NoticeExpiry(t *testing.T) {
	m, _ := newTestModel(t)
	m = step(m, NoticeMsg{Text: "primeiro"})
	old := m.noticeSeq
	m = step(m, NoticeMsg{Text: "segundo"})

	m = step(m, noticeExpiredMsg{seq: old})
	if m.notice != "segundo" {
		t.Errorf("stale expiry cleared the newer notice: %q", m.notice)
	}
	m = step(m, noticeExpiredMsg{seq: m.noticeSeq})
	if m.notice != "" {
		t.Errorf("notice = %q, want cleared", m.notice)
	}
}

func TestBuy_WarnsWhenReplacingPendingInvoice(t *testing.T) {
	srv := apitest.NewServer("tok")
	defer srv.Close()
	client := api.NewClient(srv.URL, api.NewTokenHolder("tok"))
	machine := payment.New(client, payment.Config{PollInterval: time.Hour})
	defer machine.Stop()

	ctrl := session.NewController(nil, nil, session.DefaultOptions())
	m := New(context.Background(), Deps{
		Controller: ctrl,
		Payments:   machine,
		Theme:      styles.NewTheme(),
		Options:    Options{GlamourStyle: "notty", SidebarWidth: 30, BTCPriceUSD: 94000},
	})
	m = step(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, cmd := typeAndSubmit(m, "/buy light")
	if cmd == nil {
		t.Fatal("/buy returned no command")
	}
	if strings.Contains(m.notice, "cancelada") {
		t.Errorf("notice %q with no pending invoice", m.notice)
	}

	pkg, err := pricing.FindPackage("light")
	if err != nil {
		t.Fatal(err)
	}
	q, err := pricing.NewQuote(pkg, 0, 94000)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := machine.Purchase(context.Background(), q); err != nil {
		t.Fatal(err)
	}

	m, _ = typeAndSubmit(m, "/buy light")
	if !strings.Contains(m.notice, "cancelada") {
		t.Errorf("notice = %q, want a warning about the pending invoice", m.notice)
	}
}

func TestView_Renders(t *testing.T) {
	m, _ := newTestModel(t)
	m = step(m, TitleMsg{Title: "Viagem"})
	out := m.View()
	for _, want := range []string{"Sofia", "Viagem", "modelo", "gpt-5", "Conversas"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
