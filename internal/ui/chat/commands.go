// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// COMMAND TABLE
// =============================================================================

// CommandInfo documents one slash command.
type CommandInfo struct {
	Name  string
	Usage string
	Help  string
}

// Commands lists the slash commands in help order.
var Commands = []CommandInfo{
	{"new", "/new", "nova conversa"},
	{"open", "/open <id>", "abrir conversa"},
	{"rename", "/rename <nome>", "renomear a conversa ativa"},
	{"delete", "/delete [id]", "excluir conversa (padrão: a ativa)"},
	{"project", "/project new|rename|delete|toggle|chat ...", "gerenciar projetos"},
	{"move", "/move <projeto>", "mover a conversa ativa para um projeto"},
	{"unfile", "/unfile", "tirar a conversa ativa do projeto"},
	{"model", "/model [id]", "trocar ou listar modelos"},
	{"attach", "/attach <arquivo>", "anexar imagem (até 10MB)"},
	{"detach", "/detach", "remover anexo"},
	{"balance", "/balance", "atualizar saldo"},
	{"packages", "/packages", "listar pacotes de recarga"},
	{"buy", "/buy <pacote> [usd]", "comprar tokens via Lightning"},
	{"cancel", "/cancel", "cancelar pagamento pendente"},
	{"retry", "/retry", "tentar creditar de novo"},
	{"history", "/history", "histórico de transações"},
	{"export", "/export [md|json]", "exportar a conversa ativa"},
	{"help", "/help", "esta ajuda"},
	{"quit", "/quit", "sair"},
}

// Errors returned while parsing commands.
var (
	ErrUnknownCommand = errors.New("comando desconhecido")
	ErrMissingArg     = errors.New("argumento faltando")
)

// =============================================================================
// PARSING
// =============================================================================

// Command is a parsed slash command.
type Command struct {
	Name string
	Args []string
	// Rest is everything after the name, trimmed, for free-text arguments
	// such as names.
	Rest string
}

// Arg returns argument i, or "".
func (c Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// RestAfter returns the free text after the first n arguments.
func (c Command) RestAfter(n int) string {
	s := c.Rest
	for i := 0; i < n; i++ {
		s = strings.TrimSpace(s)
		idx := strings.IndexAny(s, " \t")
		if idx < 0 {
			return ""
		}
		s = s[idx:]
	}
	return strings.TrimSpace(s)
}

// IsCommand reports whether an input line is a command rather than a
// message.
func IsCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "/")
}

// ParseCommand parses "/name args...". Names are case-insensitive.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}
	line = line[1:]

	name, rest, _ := strings.Cut(line, " ")
	name = strings.ToLower(strings.TrimSpace(name))
	if !knownCommand(name) {
		return Command{}, fmt.Errorf("%w: /%s", ErrUnknownCommand, name)
	}
	rest = strings.TrimSpace(rest)
	return Command{Name: name, Args: strings.Fields(rest), Rest: rest}, nil
}

func knownCommand(name string) bool {
	for _, c := range Commands {
		if c.Name == name {
			return true
		}
	}
	return false
}

// parseAmount parses a dollar amount such as "15", "15.5" or "15,50".
func parseAmount(s string) (float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("valor inválido %q", s)
	}
	return v, nil
}

// HelpText renders the command table.
func HelpText() string {
	width := 0
	for _, c := range Commands {
		if len(c.Usage) > width {
			width = len(c.Usage)
		}
	}
	var b strings.Builder
	for i, c := range Commands {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-*s  %s", width, c.Usage, c.Help)
	}
	return b.String()
}
