// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/registry"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache", "sofia.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// SNAPSHOT TESTS
// =============================================================================

func TestStore_SnapshotRoundTrip(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()

	if _, err := store.LoadSnapshot(ctx); !errors.Is(err, registry.ErrNoSnapshot) {
		t.Fatalf("LoadSnapshot() on empty store error = %v, want ErrNoSnapshot", err)
	}

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	snap := &registry.Snapshot{
		Chats: []model.ChatSummary{
			{ID: 42, Name: "Receitas", CreatedAt: model.Timestamp{Time: created}},
		},
		Projects: []model.Project{
			{ID: 3, Name: "Casa", ChatIDs: []model.ChatID{42}, Collapsed: true},
		},
		FetchedAt: created,
	}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	snap.Chats[0].Name = "Renomeada"
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("second SaveSnapshot() error = %v", err)
	}

	got, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(got.Chats) != 1 || got.Chats[0].Name != "Renomeada" {
		t.Errorf("Chats = %+v", got.Chats)
	}
	if !got.Chats[0].CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.Chats[0].CreatedAt, created)
	}
	if len(got.Projects) != 1 || !got.Projects[0].Contains(42) || !bool(got.Projects[0].Collapsed) {
		t.Errorf("Projects = %+v", got.Projects)
	}
}

func TestStore_WarmStartsRegistry(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()

	snap := &registry.Snapshot{Chats: []model.ChatSummary{{ID: 1, Name: "a"}}}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatal(err)
	}

	reg := registry.New(nil).WithCache(store)
	if !reg.WarmStart(ctx) {
		t.Fatal("WarmStart() = false, want true")
	}
	if _, ok := reg.Chat(1); !ok {
		t.Error("warm-started registry should know chat 1")
	}
}

// =============================================================================
// LEDGER TESTS
// =============================================================================

func TestStore_CreditedLedger(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()

	credited, err := store.IsCredited(ctx, "hash-1")
	if err != nil || credited {
		t.Fatalf("IsCredited() = %v, %v; want false, nil", credited, err)
	}

	if err := store.MarkCredited(ctx, "hash-1", 1_250_000); err != nil {
		t.Fatalf("MarkCredited() error = %v", err)
	}
	if err := store.MarkCredited(ctx, "hash-1", 1_250_000); !errors.Is(err, ErrAlreadyCredited) {
		t.Errorf("second MarkCredited() error = %v, want ErrAlreadyCredited", err)
	}

	credited, err = store.IsCredited(ctx, "hash-1")
	if err != nil || !credited {
		t.Errorf("IsCredited() = %v, %v; want true, nil", credited, err)
	}

	credits, err := store.Credits(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(credits) != 1 || credits[0].Tokens != 1_250_000 {
		t.Errorf("Credits() = %+v", credits)
	}
}

func TestStore_LedgerSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sofia.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.MarkCredited(ctx, "hash-9", 10); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	credited, err := store.IsCredited(ctx, "hash-9")
	if err != nil || !credited {
		t.Errorf("IsCredited() after reopen = %v, %v", credited, err)
	}
}

func TestStore_Closed(t *testing.T) {
	store := openTemp(t)
	store.Close()
	if _, err := store.IsCredited(context.Background(), "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("IsCredited() on closed store error = %v, want ErrClosed", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("double Close() error = %v", err)
	}
}

// =============================================================================
// EXPORT TESTS
// =============================================================================

func sampleConversation() *model.Conversation {
	return &model.Conversation{
		Chat: model.ChatSummary{ID: 42, Name: "Receitas de Pão"},
		Messages: []model.Message{
			model.NewUserMessage("Como faço pão?"),
			model.NewAssistantMessage("Misture **farinha** e água."),
			model.NewErrorMessage("Erro de conexão: timeout"),
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleConversation())

	for _, want := range []string{"# Receitas de Pão", "**Você**", "**Sofia**", "Misture **farinha** e água."} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Erro de conexão") {
		t.Error("client-side error messages should not be exported")
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()

	path, err := Export(sampleConversation(), dir, FormatMarkdown)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if filepath.Base(path) != "sofia-42-receitas-de-pão.md" {
		t.Errorf("file name = %q", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}

	path, err = Export(sampleConversation(), dir, FormatJSON)
	if err != nil {
		t.Fatalf("Export(json) error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		t.Fatalf("exported JSON invalid: %v", err)
	}
	if conv.Chat.ID != 42 || len(conv.Messages) != 3 {
		t.Errorf("decoded export = %+v", conv)
	}

	if _, err := Export(&model.Conversation{}, dir, FormatMarkdown); !errors.Is(err, ErrEmptyConversation) {
		t.Errorf("Export(empty) error = %v, want ErrEmptyConversation", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{".md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
