// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/billing"
	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/pricing"
	"github.com/jeranaias/sofia-tui/internal/session"
	"github.com/jeranaias/sofia-tui/internal/storage"
)

// Every action runs in a tea.Cmd goroutine. Results come back either through
// the Bridge (controller view updates) or as the returned message.

func noticeCmd(text string) tea.Cmd {
	return func() tea.Msg { return NoticeMsg{Text: text} }
}

func errNotice(prefix string, err error) tea.Msg {
	return NoticeMsg{Text: prefix + err.Error()}
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func (m Model) sendMessage(text string) tea.Cmd {
	ctrl, ctx := m.deps.Controller, m.ctx
	return func() tea.Msg {
		_, err := ctrl.SubmitMessage(ctx, text)
		switch {
		case errors.Is(err, session.ErrLoading):
			return restoreInputMsg{text: text, enable: true, notice: "Aguarde, carregando a conversa..."}
		case errors.Is(err, session.ErrSendInFlight):
			return restoreInputMsg{text: text}
		case err != nil:
			return errNotice("Erro: ", err)
		}
		return nil
	}
}

func (m Model) selectConversation(id model.ChatID) tea.Cmd {
	ctrl, ctx := m.deps.Controller, m.ctx
	return func() tea.Msg {
		ctrl.SelectConversation(ctx, id)
		return nil
	}
}

func (m Model) createConversation() tea.Cmd {
	ctrl, ctx := m.deps.Controller, m.ctx
	return func() tea.Msg {
		if _, err := ctrl.CreateConversation(ctx); err != nil {
			return errNotice("Erro ao criar conversa: ", err)
		}
		return nil
	}
}

func (m Model) deleteConversation(id model.ChatID) tea.Cmd {
	ctrl, ctx := m.deps.Controller, m.ctx
	return func() tea.Msg {
		if err := ctrl.DeleteConversation(ctx, id); err != nil {
			log.Printf("chat: delete %s: %v", id, err)
			return nil
		}
		return NoticeMsg{Text: "Conversa excluída."}
	}
}

func (m Model) toggleProject(id model.ProjectID) tea.Cmd {
	ctrl, ctx := m.deps.Controller, m.ctx
	return func() tea.Msg {
		if err := ctrl.ToggleProject(ctx, id); err != nil {
			return errNotice("Erro ao alternar projeto: ", err)
		}
		return nil
	}
}

// controllerCmd runs op and only logs its error, for controller operations
// that already report failures through View.Notify.
func controllerCmd(name string, op func() error) tea.Cmd {
	return func() tea.Msg {
		if err := op(); err != nil {
			log.Printf("chat: %s: %v", name, err)
		}
		return nil
	}
}

// =============================================================================
// DATA LOADS
// =============================================================================

func (m Model) refreshRegistry() tea.Cmd {
	reg, ctx := m.deps.Registry, m.ctx
	return func() tea.Msg {
		if err := reg.Refresh(ctx); err != nil {
			return errNotice("Erro ao carregar conversas: ", err)
		}
		return nil
	}
}

func (m Model) refreshBalance() tea.Cmd {
	tracker, ctx := m.deps.Balance, m.ctx
	return func() tea.Msg {
		if _, err := tracker.Refresh(ctx); err != nil {
			log.Printf("chat: balance: %v", err)
		}
		return nil
	}
}

func (m Model) loadPrices() tea.Cmd {
	table, backend, ctx := m.deps.Prices, m.deps.Backend, m.ctx
	if backend == nil {
		return nil
	}
	return func() tea.Msg {
		// Failures are logged by the table and hide the estimate.
		_ = table.Load(ctx, backend)
		return nil
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// runCommand executes a slash command line.
func (m *Model) runCommand(line string) tea.Cmd {
	cmd, err := ParseCommand(line)
	if err != nil {
		return m.setNotice(err.Error() + " (/help)")
	}

	ctrl, ctx := m.deps.Controller, m.ctx
	active := ctrl.State().Active

	switch cmd.Name {
	case "new":
		return m.createConversation()

	case "open":
		id, err := model.ParseChatID(cmd.Arg(0))
		if err != nil {
			return m.setNotice("Uso: /open <id>")
		}
		return m.selectConversation(id)

	case "rename":
		if active.IsZero() || cmd.Rest == "" {
			return m.setNotice("Uso: /rename <nome>")
		}
		name := cmd.Rest
		return controllerCmd("rename", func() error { return ctrl.RenameConversation(ctx, active, name) })

	case "delete":
		id := active
		if cmd.Arg(0) != "" {
			if id, err = model.ParseChatID(cmd.Arg(0)); err != nil {
				return m.setNotice("Uso: /delete [id]")
			}
		}
		if id.IsZero() {
			return m.setNotice("Nenhuma conversa ativa.")
		}
		return m.deleteConversation(id)

	case "project":
		return m.runProjectCommand(cmd)

	case "move":
		pid, err := model.ParseProjectID(cmd.Arg(0))
		if err != nil || active.IsZero() {
			return m.setNotice("Uso: /move <projeto> (com uma conversa ativa)")
		}
		return controllerCmd("move", func() error { return ctrl.MoveToProject(ctx, active, pid) })

	case "unfile":
		if active.IsZero() {
			return m.setNotice("Nenhuma conversa ativa.")
		}
		return controllerCmd("unfile", func() error { return ctrl.RemoveFromProject(ctx, active) })

	case "model":
		if cmd.Arg(0) == "" {
			return m.modelsPanel()
		}
		ctrl.SetModel(cmd.Arg(0))
		return m.setNotice("Modelo: " + ctrl.Model())

	case "attach":
		path := cmd.Rest
		if path == "" {
			return m.setNotice("Uso: /attach <arquivo>")
		}
		return func() tea.Msg {
			att, err := ctrl.AttachFile(path)
			if err != nil {
				return errNotice("Anexo recusado: ", err)
			}
			return NoticeMsg{Text: fmt.Sprintf("📎 %s anexado (%d KB)", att.Name, (att.Size()+1023)/1024)}
		}

	case "detach":
		ctrl.ClearAttachment()
		return m.setNotice("Anexo removido.")

	case "balance":
		if m.deps.Balance == nil {
			return nil
		}
		return m.refreshBalance()

	case "packages":
		return m.packagesPanel()

	case "buy":
		return m.buy(cmd)

	case "cancel":
		if m.deps.Payments == nil || !m.deps.Payments.Cancel() {
			return m.setNotice("Nenhum pagamento pendente.")
		}
		return nil

	case "retry":
		if m.deps.Payments == nil {
			return nil
		}
		payments := m.deps.Payments
		return func() tea.Msg {
			if err := payments.RetryCredit(ctx); err != nil {
				return errNotice("Não foi possível creditar: ", err)
			}
			return nil
		}

	case "history":
		return m.historyPanel()

	case "export":
		return m.export(cmd.Arg(0), active)

	case "help":
		return func() tea.Msg { return panelMsg{title: "Comandos", body: HelpText()} }

	case "quit":
		return func() tea.Msg { return quitMsg{} }
	}
	return nil
}

func (m *Model) runProjectCommand(cmd Command) tea.Cmd {
	ctrl, ctx := m.deps.Controller, m.ctx
	sub := strings.ToLower(cmd.Arg(0))

	if sub == "new" {
		name := cmd.RestAfter(1)
		return controllerCmd("project new", func() error {
			_, err := ctrl.CreateProject(ctx, name)
			return err
		})
	}

	pid, err := model.ParseProjectID(cmd.Arg(1))
	if err != nil {
		return m.setNotice("Uso: /project new [nome] | rename|delete|toggle|chat <id> ...")
	}

	switch sub {
	case "rename":
		name := cmd.RestAfter(2)
		return controllerCmd("project rename", func() error { return ctrl.RenameProject(ctx, pid, name) })
	case "delete":
		return controllerCmd("project delete", func() error { return ctrl.DeleteProject(ctx, pid) })
	case "toggle":
		return m.toggleProject(pid)
	case "chat":
		return controllerCmd("project chat", func() error {
			_, err := ctrl.CreateConversationInProject(ctx, pid)
			return err
		})
	}
	return m.setNotice("Subcomando desconhecido: " + sub)
}

// =============================================================================
// BILLING
// =============================================================================

func (m *Model) buy(cmd Command) tea.Cmd {
	if m.deps.Payments == nil {
		return nil
	}
	pkg, err := pricing.FindPackage(cmd.Arg(0))
	if err != nil {
		return m.setNotice("Uso: /buy <pacote> [usd] (veja /packages)")
	}
	var usd float64
	if pkg.Custom {
		if usd, err = parseAmount(cmd.Arg(1)); err != nil {
			return m.setNotice(fmt.Sprintf("Uso: /buy %s <usd> (entre $%.0f e $%.0f)",
				pkg.ID, pricing.CustomMinUSD, pricing.CustomMaxUSD))
		}
	}
	quote, err := pricing.NewQuote(pkg, usd, m.deps.Options.BTCPriceUSD)
	if err != nil {
		return m.setNotice("Erro: " + err.Error())
	}

	payments, ctx := m.deps.Payments, m.ctx
	purchase := func() tea.Msg {
		if _, err := payments.Purchase(ctx, quote); err != nil {
			return errNotice("Erro ao gerar fatura: ", err)
		}
		return nil
	}
	if payments.Polling() {
		return tea.Batch(m.setNotice("A fatura pendente será cancelada."), purchase)
	}
	return purchase
}

func (m Model) packagesPanel() tea.Cmd {
	btc := m.deps.Options.BTCPriceUSD
	return func() tea.Msg {
		var b strings.Builder
		for _, p := range pricing.Packages {
			if p.Custom {
				fmt.Fprintf(&b, "%-11s $%.0f–$%.0f, %s tokens por dólar\n",
					p.ID, pricing.CustomMinUSD, pricing.CustomMaxUSD,
					billing.FormatTokens(int64(pricing.CustomTokensPerUSD)))
				continue
			}
			sats, _ := pricing.Sats(p.USD, btc)
			line := fmt.Sprintf("%-11s $%-4.0f %6s tokens  %d sats", p.ID, p.USD, billing.FormatTokens(p.Tokens), sats)
			if p.Popular {
				line += "  ★"
			}
			b.WriteString(line + "\n")
		}
		return panelMsg{title: "Pacotes", body: strings.TrimRight(b.String(), "\n")}
	}
}

func (m Model) historyPanel() tea.Cmd {
	backend, ctx := m.deps.Backend, m.ctx
	if backend == nil {
		return nil
	}
	return func() tea.Msg {
		txs, err := backend.Transactions(ctx, api.DefaultTransactionLimit)
		if err != nil {
			return errNotice("Erro ao carregar histórico: ", err)
		}
		if len(txs) == 0 {
			return panelMsg{title: "Histórico", body: "Nenhuma transação ainda."}
		}
		var b strings.Builder
		for i, tx := range txs {
			row := billing.FormatRow(tx, time.Local)
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%-10s %-30s %s", row.Label, row.Details, row.Amount)
		}
		return panelMsg{title: "Histórico", body: b.String()}
	}
}

func (m Model) modelsPanel() tea.Cmd {
	table := m.deps.Prices
	current := m.deps.Controller.Model()
	return func() tea.Msg {
		if table == nil || table.Len() == 0 {
			return NoticeMsg{Text: "Modelo atual: " + current}
		}
		var b strings.Builder
		for i, id := range table.Models() {
			p, _ := table.Lookup(id)
			marker := "  "
			if id == current {
				marker = "● "
			}
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s%-20s entrada %.2f  saída %.2f  (por 1K)", marker, id, p.Input, p.Output)
		}
		return panelMsg{title: "Modelos", body: b.String()}
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func (m Model) export(formatArg string, active model.ChatID) tea.Cmd {
	if active.IsZero() {
		return noticeCmd("Nenhuma conversa ativa.")
	}
	format, err := storage.ParseFormat(formatArg)
	if err != nil {
		return noticeCmd("Uso: /export [md|json]")
	}
	backend, ctx, dir := m.deps.Backend, m.ctx, m.deps.Options.ExportDir
	if backend == nil {
		return nil
	}
	return func() tea.Msg {
		conv, err := backend.GetChat(ctx, active)
		if err != nil {
			return errNotice("Erro ao exportar: ", err)
		}
		path, err := storage.Export(conv, dir, format)
		if err != nil {
			return errNotice("Erro ao exportar: ", err)
		}
		return NoticeMsg{Text: "Exportado para " + path}
	}
}
