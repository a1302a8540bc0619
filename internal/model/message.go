// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "Você"
	case RoleAssistant:
		return "Sofia"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one entry of a conversation transcript.
type Message struct {
	// ID is local to this client. Server messages get one on hydration so
	// the view can key on it; it is never sent back.
	ID        string    `json:"-"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`

	// IsError marks assistant-styled messages produced by the client for a
	// failed send. They are never persisted by the backend.
	IsError bool `json:"-"`
}

// NewMessage creates a message stamped with a fresh local id and now.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: Timestamp{Time: time.Now()},
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// NewErrorMessage creates an assistant-styled message describing a failure.
func NewErrorMessage(content string) Message {
	msg := NewMessage(RoleAssistant, content)
	msg.IsError = true
	return msg
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool { return m.Role == RoleUser }

// IsAssistant reports whether the message was written by the assistant.
func (m Message) IsAssistant() bool { return m.Role == RoleAssistant }
