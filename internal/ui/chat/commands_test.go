// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantArgs []string
		wantRest string
		wantErr  error
	}{
		{"/new", "new", nil, "", nil},
		{"  /RENAME  Minha conversa ", "rename", []string{"Minha", "conversa"}, "Minha conversa", nil},
		{"/buy starter 15", "buy", []string{"starter", "15"}, "starter 15", nil},
		{"/nope", "", nil, "", ErrUnknownCommand},
		{"hello", "", nil, "", ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := ParseCommand(tt.line)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cmd.Name != tt.wantName || cmd.Rest != tt.wantRest {
				t.Errorf("got %+v", cmd)
			}
			if strings.Join(cmd.Args, "|") != strings.Join(tt.wantArgs, "|") {
				t.Errorf("args = %v, want %v", cmd.Args, tt.wantArgs)
			}
		})
	}
}

func TestCommand_RestAfter(t *testing.T) {
	cmd, err := ParseCommand("/project rename 12   Novo   nome")
	if err != nil {
		t.Fatal(err)
	}
	if got := cmd.RestAfter(2); got != "Novo   nome" {
		t.Errorf("RestAfter(2) = %q", got)
	}
	if got := cmd.RestAfter(5); got != "" {
		t.Errorf("RestAfter past end = %q", got)
	}
	if cmd.Arg(9) != "" {
		t.Error("Arg out of range should be empty")
	}
}

func TestParseAmount(t *testing.T) {
	for in, want := range map[string]float64{"15": 15, "$15.5": 15.5, "7,25": 7.25} {
		got, err := parseAmount(in)
		if err != nil || got != want {
			t.Errorf("parseAmount(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseAmount("dez"); err == nil {
		t.Error("parseAmount accepted text")
	}
}

func TestHelpTextListsEveryCommand(t *testing.T) {
	help := HelpText()
	for _, c := range Commands {
		if !strings.Contains(help, c.Usage) {
			t.Errorf("help missing %s", c.Usage)
		}
	}
	if IsCommand("olá /new") {
		t.Error("text with a slash in the middle is not a command")
	}
}
