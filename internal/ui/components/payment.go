// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/sofia-tui/internal/billing"
	"github.com/jeranaias/sofia-tui/internal/payment"
	"github.com/jeranaias/sofia-tui/internal/ui/styles"
)

// PaymentPanel draws the recharge surface for one payment session.
type PaymentPanel struct {
	Theme *styles.Theme
	Width int
}

// StatusText is the user-facing line for a session status.
func StatusText(s payment.Session) string {
	switch s.Status {
	case payment.StatusCreated, payment.StatusPolling:
		return "⏳ Aguardando pagamento..."
	case payment.StatusSettled:
		if s.CreditErr != nil {
			return "⚠️ Pagamento recebido, mas o crédito falhou: " + s.CreditErr.Error() + " (use /retry)"
		}
		return "✅ Pagamento recebido! Creditando tokens..."
	case payment.StatusCredited:
		return "🎉 Tokens creditados com sucesso!"
	case payment.StatusCancelled:
		return "Pagamento cancelado."
	case payment.StatusExpired:
		return "⌛ Fatura expirada. Gere uma nova com /buy."
	default:
		return s.Status.String()
	}
}

// Render draws the panel.
func (p PaymentPanel) Render(s payment.Session) string {
	t := p.Theme
	width := p.Width - 6
	if width < 20 {
		width = 20
	}

	var lines []string
	lines = append(lines, t.PaymentTitle.Render(fmt.Sprintf("⚡ Recarga %s: %s tokens por $%.2f",
		s.Package, billing.FormatTokens(s.Tokens), s.USD)))
	lines = append(lines, t.StatusValue.Render(fmtNumber(s.Sats)+" sats"))

	if s.Status.Pending() {
		lines = append(lines, "", t.PaymentInvoice.Render("Fatura Lightning:"))
		for _, chunk := range chunk(s.PaymentRequest, width) {
			lines = append(lines, t.PaymentInvoice.Render(chunk))
		}
	}

	status := t.PaymentStatus
	switch {
	case s.Status == payment.StatusCredited:
		status = status.Inherit(t.SuccessStyle)
	case s.CreditErr != nil, s.Status == payment.StatusExpired:
		status = status.Inherit(t.ErrorStyle)
	}
	lines = append(lines, "", status.Render(StatusText(s)))

	if s.Status.Pending() {
		lines = append(lines, t.MutedStyle.Render("/cancel para cancelar"))
	}
	return t.PaymentBox.Render(strings.Join(lines, "\n"))
}

// chunk splits s into pieces of at most n bytes. Invoices are ASCII.
func chunk(s string, n int) []string {
	if s == "" {
		return nil
	}
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	return append(out, s)
}
