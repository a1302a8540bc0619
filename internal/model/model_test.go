// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// DECODING TESTS
// =============================================================================

func TestChatSummary_Decode(t *testing.T) {
	raw := `[{"id": 42, "chat_name": "Nova Conversa", "created_at": "2025-03-01 10:00:00"},
	         {"id": "7", "chat_name": "", "created_at": "Sat, 01 Mar 2025 09:00:00 GMT"}]`

	var chats []ChatSummary
	if err := json.Unmarshal([]byte(raw), &chats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("len = %d", len(chats))
	}
	if chats[0].ID != 42 || !chats[0].IsPlaceholder() {
		t.Errorf("first chat = %+v", chats[0])
	}
	if chats[0].CreatedAt.IsZero() || chats[1].CreatedAt.IsZero() {
		t.Error("timestamps should parse")
	}
	if chats[1].ID != 7 {
		t.Errorf("string id not decoded: %v", chats[1].ID)
	}
	if chats[1].Label() != UntitledLabel || chats[1].Title() != UntitledTitle {
		t.Errorf("fallback labels: %q %q", chats[1].Label(), chats[1].Title())
	}
}

func TestProject_DecodeLooseCollapsed(t *testing.T) {
	raw := `{"projects": [
		{"id": 1, "name": "a", "chat_ids": [1, 2], "collapsed": 1},
		{"id": 2, "name": "b", "chat_ids": [], "collapsed": false},
		{"id": 3, "name": "c", "chat_ids": null, "collapsed": "0"}
	]}`
	var resp struct {
		Projects []Project `json:"projects"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Projects[0].Collapsed || resp.Projects[1].Collapsed || resp.Projects[2].Collapsed {
		t.Errorf("collapsed flags wrong: %+v", resp.Projects)
	}
	if !resp.Projects[0].Contains(2) || resp.Projects[0].Contains(3) {
		t.Error("Contains mismatch")
	}
}

func TestTimestamp_UnknownLayoutIsZero(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ts.IsZero() {
		t.Error("unknown layout should decode to zero time")
	}
}

// =============================================================================
// CONSTRUCTOR TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	a := NewUserMessage("Hello")
	b := NewUserMessage("Hello")
	if a.ID == "" || a.ID == b.ID {
		t.Error("messages should get distinct local ids")
	}
	if !a.IsUser() || a.IsError {
		t.Errorf("unexpected message: %+v", a)
	}

	e := NewErrorMessage("⚠️ boom")
	if !e.IsAssistant() || !e.IsError {
		t.Errorf("error message should be assistant-styled: %+v", e)
	}
}

func TestConversation_AssignLocalIDs(t *testing.T) {
	conv := Conversation{Messages: []Message{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}}}
	conv.AssignLocalIDs()
	for _, m := range conv.Messages {
		if m.ID == "" {
			t.Error("message left without id")
		}
	}
	last, ok := conv.LastMessage()
	if !ok || last.Content != "b" {
		t.Errorf("LastMessage = %+v, %v", last, ok)
	}
}

func TestTransaction_IsCredit(t *testing.T) {
	if !(Transaction{Type: TransactionPurchase, Amount: 100}).IsCredit() {
		t.Error("purchase should be credit")
	}
	if (Transaction{Type: "usage", Amount: -50}).IsCredit() {
		t.Error("usage should be debit")
	}
}
