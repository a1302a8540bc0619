// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat.
//
// Command: chat [id]
// Short:   Chat with Sofia without the full-screen interface
//
// Examples:
//   sofia chat                  Start a new conversation on the first message
//   sofia chat 42               Continue conversation 42
//   sofia chat --plain          Skip markdown rendering, highlight code only
//   sofia chat -m deepseek      Use another model

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/sofia-tui/internal/billing"
	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/session"
	"github.com/jeranaias/sofia-tui/internal/storage"
	"github.com/jeranaias/sofia-tui/internal/ui/chat"
)

func newChatCommand(opts *rootOptions) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "chat [id]",
		Short: "Chat with Sofia in line mode",
		Long: `Chat with Sofia from a plain terminal. Arrow keys browse the input
history. Slash commands such as /new, /open, /model and /attach work as in
the full-screen chat; /help lists them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var open model.ChatID
			if len(args) == 1 {
				id, err := model.ParseChatID(args[0])
				if err != nil {
					return invalidArg("id", args[0], "not a conversation id", "sofia chat 42")
				}
				open = id
			}
			return runChat(cmd.Context(), opts, cmd.OutOrStdout(), open, plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print replies as text with highlighted code blocks")
	return cmd
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor backed by historyFile.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	c := &ChatCLI{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads one line, recording non-empty input in the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history (owner-only) and restores the terminal.
func (c *ChatCLI) Close() {
	if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		c.line.WriteHistory(f)
		f.Close()
	}
	c.line.Close()
}

// completeCommand completes slash command names.
func completeCommand(line string) []string {
	if !chat.IsCommand(line) || strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, c := range chat.Commands {
		if strings.HasPrefix("/"+c.Name, line) {
			out = append(out, "/"+c.Name+" ")
		}
	}
	return out
}

// =============================================================================
// LINE VIEW
// =============================================================================

// lineView prints what the controller draws. User messages are not echoed;
// the terminal already shows what was typed.
type lineView struct {
	mu    sync.Mutex
	p     *printer
	title string
}

var _ session.View = (*lineView)(nil)

func (v *lineView) ClearMessages() {}

func (v *lineView) SetMessages(msgs []model.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, m := range msgs {
		v.p.Message(m)
	}
}

func (v *lineView) AppendMessage(msg model.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if msg.IsUser() {
		return
	}
	v.p.Message(msg)
}

func (v *lineView) SetTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if title != v.title {
		v.title = title
		v.p.Title(title)
	}
}

func (v *lineView) SetPending(pending bool) {
	if pending {
		v.mu.Lock()
		v.p.Info("Sofia está digitando...")
		v.mu.Unlock()
	}
}

func (v *lineView) SetSendEnabled(bool) {}

func (v *lineView) Notify(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.p.Info(msg)
}

// =============================================================================
// REPL
// =============================================================================

func runChat(ctx context.Context, opts *rootOptions, out io.Writer, open model.ChatID, plain bool) error {
	app, err := opts.app()
	if err != nil {
		return err
	}
	defer app.Close()

	color := ColorsEnabled()
	style := opts.cfg.UI.GlamourStyle
	if style == "" || style == "auto" {
		style = "dark"
	}
	view := &lineView{p: newPrinter(out, style, plain, color)}
	ctrl := app.Controller(view)

	if !open.IsZero() {
		ctrl.SelectConversation(ctx, open)
	}

	historyFile, err := opts.cfg.HistoryPath()
	if err != nil {
		return err
	}
	line := NewChatCLI(historyFile)
	defer line.Close()

	fmt.Fprintln(out, view.p.style(titleStyle, "Sofia"), view.p.style(mutedStyle, "· modelo "+ctrl.Model()+" · /help para comandos · Ctrl+D para sair"))

	r := &repl{app: app, ctrl: ctrl, view: view, out: out}
	for {
		input, err := line.ReadInput("› ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			break
		}

		input = strings.TrimSpace(input)
		if input == "" && ctrl.State().Attachment == nil {
			continue
		}
		if chat.IsCommand(input) {
			if quit := r.command(ctx, input); quit {
				break
			}
			continue
		}

		if _, err := ctrl.SubmitMessage(ctx, input); err != nil {
			view.Notify(err.Error())
		}
	}

	if st := ctrl.State(); !st.Active.IsZero() {
		fmt.Fprintf(out, "Até logo! Continue com: sofia chat %s\n", st.Active)
	}
	return nil
}

// repl runs the slash commands that make sense in line mode.
type repl struct {
	app  *App
	ctrl *session.Controller
	view *lineView
	out  io.Writer
}

// command executes line and reports whether the REPL should stop.
func (r *repl) command(ctx context.Context, line string) bool {
	cmd, err := chat.ParseCommand(line)
	if err != nil {
		r.view.Notify(err.Error() + " (/help)")
		return false
	}

	active := r.ctrl.State().Active
	switch cmd.Name {
	case "quit":
		return true

	case "help":
		fmt.Fprintln(r.out, chat.HelpText())

	case "new":
		if _, err := r.ctrl.CreateConversation(ctx); err != nil {
			r.view.Notify("Erro ao criar conversa: " + err.Error())
		}

	case "open":
		id, err := model.ParseChatID(cmd.Arg(0))
		if err != nil {
			r.view.Notify("Uso: /open <id>")
			return false
		}
		r.ctrl.SelectConversation(ctx, id)

	case "rename":
		if active.IsZero() || cmd.Rest == "" {
			r.view.Notify("Uso: /rename <nome>")
			return false
		}
		if err := r.ctrl.RenameConversation(ctx, active, cmd.Rest); err != nil {
			r.view.Notify("Erro ao renomear: " + err.Error())
		}

	case "delete":
		if active.IsZero() {
			r.view.Notify("Nenhuma conversa ativa.")
			return false
		}
		if err := r.ctrl.DeleteConversation(ctx, active); err != nil {
			r.view.Notify("Erro ao excluir: " + err.Error())
		}

	case "model":
		if id := cmd.Arg(0); id != "" {
			r.ctrl.SetModel(id)
		}
		r.view.Notify("Modelo: " + r.ctrl.Model())

	case "attach":
		att, err := r.ctrl.AttachFile(cmd.Rest)
		if err != nil {
			r.view.Notify("Anexo recusado: " + err.Error())
			return false
		}
		r.view.Notify(fmt.Sprintf("📎 %s anexado (%d KB). Enter sem texto envia só a imagem.", att.Name, (att.Size()+1023)/1024))

	case "detach":
		r.ctrl.ClearAttachment()
		r.view.Notify("Anexo removido.")

	case "balance":
		b, err := r.app.Balance.Refresh(ctx)
		if err != nil {
			r.view.Notify("Erro ao consultar saldo: " + err.Error())
			return false
		}
		r.view.Notify("Saldo: " + billing.FormatBalance(b) + " tokens")

	case "export":
		if active.IsZero() {
			r.view.Notify("Nenhuma conversa ativa.")
			return false
		}
		r.export(ctx, active, cmd.Arg(0))

	default:
		r.view.Notify(fmt.Sprintf("/%s só está disponível na tela cheia; veja `sofia --help`.", cmd.Name))
	}
	return false
}

func (r *repl) export(ctx context.Context, id model.ChatID, format string) {
	f, err := storage.ParseFormat(format)
	if err != nil {
		r.view.Notify(err.Error())
		return
	}
	dir, err := r.app.Config.ExportDir()
	if err != nil {
		r.view.Notify(err.Error())
		return
	}
	conv, err := r.app.Client.GetChat(ctx, id)
	if err != nil {
		r.view.Notify("Erro ao carregar conversa: " + err.Error())
		return
	}
	path, err := storage.Export(conv, dir, f)
	if err != nil {
		r.view.Notify("Erro ao exportar: " + err.Error())
		return
	}
	r.view.Notify("Exportado para " + path)
}
