// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/payment"
	"github.com/jeranaias/sofia-tui/internal/registry"
	"github.com/jeranaias/sofia-tui/internal/ui/styles"
)

func sampleView() registry.View {
	chats := []model.ChatSummary{
		{ID: 1, Name: "Receitas"},
		{ID: 2, Name: "Viagem"},
		{ID: 3, Name: ""},
		{ID: 4, Name: "Trabalho"},
	}
	projects := []model.Project{
		{ID: 10, Name: "Casa", ChatIDs: []model.ChatID{1}},
		{ID: 11, Name: "Fechado", ChatIDs: []model.ChatID{2}, Collapsed: true},
	}
	p := registry.Partition(chats, projects)
	return registry.View{Partitioned: p, Recent: registry.Recent(p.Unfiled, 10)}
}

// =============================================================================
// SIDEBAR
// =============================================================================

func TestSidebarItems(t *testing.T) {
	items := SidebarItems(sampleView())

	var got []string
	for _, it := range items {
		prefix := "c:"
		if it.Kind == ItemProject {
			prefix = "p:"
		}
		if it.Nested {
			prefix += ">"
		}
		got = append(got, prefix+it.Label)
	}
	want := []string{"p:Casa", "c:>Receitas", "p:Fechado", "c:Sem nome", "c:Trabalho"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("items = %v, want %v", got, want)
	}
	if !items[2].Collapsed {
		t.Error("Fechado should be collapsed")
	}
}

func TestSidebarRender_Marks(t *testing.T) {
	v := sampleView()
	items := SidebarItems(v)
	sb := Sidebar{Theme: styles.NewTheme(), Width: 40, Height: 30}

	out := sb.Render(v, items, registry.MarkState{Active: 4, Selected: 1})

	if n := strings.Count(out, styles.MarkerActive); n != 1 {
		t.Errorf("active marker drawn %d times, want 1:\n%s", n, out)
	}
	if n := strings.Count(out, styles.MarkerChecked); n != 1 {
		t.Errorf("checked box drawn %d times, want 1", n)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, styles.MarkerActive) && !strings.Contains(line, "Trabalho") {
			t.Errorf("active marker on the wrong row: %q", line)
		}
	}
	if strings.Contains(out, "Viagem") {
		t.Error("chat of a collapsed project should be hidden")
	}
}

func TestSidebarRender_RespectsWidth(t *testing.T) {
	v := registry.View{Recent: []model.ChatSummary{{ID: 1, Name: strings.Repeat("muito longo ", 10)}}}
	sb := Sidebar{Theme: styles.NewTheme(), Width: 24, Height: 10}
	out := sb.Render(v, SidebarItems(v), registry.MarkState{})
	for _, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 24 {
			t.Errorf("line width %d exceeds 24: %q", w, line)
		}
	}
}

func TestClip(t *testing.T) {
	lines := []string{"0", "1", "2", "3", "4", "5"}
	if got := clip(lines, 3, 0); strings.Join(got, "") != "012" {
		t.Errorf("clip top = %v", got)
	}
	if got := clip(lines, 3, 4); strings.Join(got, "") != "234" {
		t.Errorf("clip focus = %v", got)
	}
	if got := clip(lines, 3, 99); strings.Join(got, "") != "345" {
		t.Errorf("clip past end = %v", got)
	}
}

// =============================================================================
// PAYMENT PANEL
// =============================================================================

func TestStatusText(t *testing.T) {
	tests := []struct {
		s    payment.Session
		want string
	}{
		{payment.Session{Status: payment.StatusPolling}, "Aguardando"},
		{payment.Session{Status: payment.StatusSettled}, "Creditando"},
		{payment.Session{Status: payment.StatusSettled, CreditErr: errors.New("500")}, "/retry"},
		{payment.Session{Status: payment.StatusCredited}, "creditados"},
		{payment.Session{Status: payment.StatusExpired}, "expirada"},
	}
	for _, tt := range tests {
		if got := StatusText(tt.s); !strings.Contains(got, tt.want) {
			t.Errorf("StatusText(%v) = %q, want it to contain %q", tt.s.Status, got, tt.want)
		}
	}
}

func TestPaymentPanel_ShowsInvoiceOnlyWhilePending(t *testing.T) {
	p := PaymentPanel{Theme: styles.NewTheme(), Width: 60}
	s := payment.Session{
		Package:        "standard",
		Tokens:         2_500_000,
		USD:            20,
		Sats:           21276,
		PaymentRequest: "lnbc1" + strings.Repeat("q", 120),
		Status:         payment.StatusPolling,
	}

	out := p.Render(s)
	if !strings.Contains(out, "21.276 sats") || !strings.Contains(out, "lnbc1") {
		t.Errorf("pending panel missing amount or invoice:\n%s", out)
	}

	s.Status = payment.StatusCredited
	out = p.Render(s)
	if strings.Contains(out, "lnbc1") {
		t.Error("credited panel should not show the invoice")
	}
}

func TestChunk(t *testing.T) {
	if got := chunk("abcdefg", 3); strings.Join(got, "|") != "abc|def|g" {
		t.Errorf("chunk = %v", got)
	}
	if chunk("", 3) != nil {
		t.Error("chunk of empty string should be nil")
	}
}

// =============================================================================
// TRANSCRIPT AND STATUS BAR
// =============================================================================

func TestTranscript_Render(t *testing.T) {
	tr := Transcript{Theme: styles.NewTheme(), Markdown: NewMarkdown("notty"), Width: 60}
	msgs := []model.Message{
		model.NewUserMessage("Olá"),
		model.NewAssistantMessage("**Oi!**"),
		model.NewErrorMessage("⚠️ Saldo insuficiente"),
	}

	out := tr.Render(msgs, true, "*")
	for _, want := range []string{"Você", "Sofia", "Olá", "Oi!", "Saldo insuficiente", "digitando"} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q:\n%s", want, out)
		}
	}

	empty := tr.Render(nil, false, "")
	if !strings.Contains(empty, "Comece") {
		t.Errorf("empty transcript = %q", empty)
	}
}

func TestStatusBar_HidesEstimate(t *testing.T) {
	sb := StatusBar{Theme: styles.NewTheme(), Width: 100, Model: "gpt-5", Balance: "2.5M"}
	if out := sb.Render(); strings.Contains(out, "~") {
		t.Errorf("estimate shown without a value: %q", out)
	}
	sb.Estimate, sb.HasEstimate = 3, true
	if out := sb.Render(); !strings.Contains(out, "~3 tokens") {
		t.Errorf("estimate missing: %q", out)
	}
}
