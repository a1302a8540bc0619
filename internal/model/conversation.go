// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "github.com/google/uuid"

// PlaceholderName is the title a conversation is created with. A
// conversation still carrying it is eligible for auto-rename.
const PlaceholderName = "Nova Conversa"

// Fallback labels for conversations the backend returns without a name.
const (
	UntitledTitle = "Conversa"
	UntitledLabel = "Sem nome"
)

// =============================================================================
// CHAT SUMMARY
// =============================================================================

// ChatSummary is one entry of GET /api/chats.
type ChatSummary struct {
	ID         ChatID    `json:"id"`
	Name       string    `json:"chat_name"`
	CreatedAt  Timestamp `json:"created_at"`
	TokensUsed int64     `json:"tokens_used,omitempty"`
}

// Label is the name to show in lists.
func (c ChatSummary) Label() string {
	if c.Name == "" {
		return UntitledLabel
	}
	return c.Name
}

// Title is the name to show as the conversation header.
func (c ChatSummary) Title() string {
	if c.Name == "" {
		return UntitledTitle
	}
	return c.Name
}

// IsPlaceholder reports whether the chat still has its creation name.
func (c ChatSummary) IsPlaceholder() bool {
	return c.Name == PlaceholderName
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a chat with its transcript, as returned by
// GET /api/chats/{id}.
type Conversation struct {
	Chat     ChatSummary `json:"chat"`
	Messages []Message   `json:"messages"`
}

// AssignLocalIDs gives every message without an id a fresh one.
func (c *Conversation) AssignLocalIDs() {
	for i := range c.Messages {
		if c.Messages[i].ID == "" {
			c.Messages[i].ID = uuid.NewString()
		}
	}
}

// LastMessage returns the final message, if any.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}
