// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/jeranaias/sofia-tui/internal/model"
)

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateChat creates a conversation named name and returns it.
func (c *Client) CreateChat(ctx context.Context, name string) (model.ChatSummary, error) {
	var chat model.ChatSummary
	if err := c.sendJSON(ctx, http.MethodPost, "/api/chats", map[string]string{"name": name}, &chat); err != nil {
		return model.ChatSummary{}, fmt.Errorf("create chat: %w", err)
	}
	if chat.ID.IsZero() {
		return model.ChatSummary{}, fmt.Errorf("create chat: backend returned no id")
	}
	if chat.Name == "" {
		chat.Name = name
	}
	return chat, nil
}

// ListChats returns the user's conversations, newest first as the backend
// orders them.
func (c *Client) ListChats(ctx context.Context) ([]model.ChatSummary, error) {
	var chats []model.ChatSummary
	if err := c.getJSON(ctx, "/api/chats", &chats); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// GetChat returns a conversation with its transcript.
func (c *Client) GetChat(ctx context.Context, id model.ChatID) (*model.Conversation, error) {
	var conv model.Conversation
	if err := c.getJSON(ctx, "/api/chats/"+id.String(), &conv); err != nil {
		return nil, fmt.Errorf("get chat %s: %w", id, err)
	}
	if conv.Chat.ID.IsZero() {
		conv.Chat.ID = id
	}
	conv.AssignLocalIDs()
	return &conv, nil
}

// RenameChat renames a conversation.
func (c *Client) RenameChat(ctx context.Context, id model.ChatID, name string) error {
	if err := c.sendJSON(ctx, http.MethodPatch, "/api/chats/"+id.String(), map[string]string{"name": name}, nil); err != nil {
		return fmt.Errorf("rename chat %s: %w", id, err)
	}
	return nil
}

// DeleteChat deletes a conversation.
func (c *Client) DeleteChat(ctx context.Context, id model.ChatID) error {
	if err := c.sendJSON(ctx, http.MethodDelete, "/api/chats/"+id.String(), nil, nil); err != nil {
		return fmt.Errorf("delete chat %s: %w", id, err)
	}
	return nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// SendRequest is one user turn.
type SendRequest struct {
	Message string
	Model   string
	Image   *Attachment
}

// Reply is the assistant's answer to a SendRequest.
type Reply struct {
	Content    string `json:"content"`
	TokensUsed int64  `json:"tokens_used"`
	Error      string `json:"error"`
}

// SendMessage posts a user turn to conversation id. With an image it goes
// as multipart/form-data (message, model, image), otherwise as JSON.
//
// A 2xx body carrying `error` instead of `content` is returned as an
// *APIError so callers handle both failure shapes the same way.
func (c *Client) SendMessage(ctx context.Context, id model.ChatID, sr SendRequest) (*Reply, error) {
	r := request{method: http.MethodPost, path: "/api/chats/" + id.String() + "/message"}

	if sr.Image != nil {
		body, contentType, err := encodeMultipart(sr)
		if err != nil {
			return nil, err
		}
		r.rawBody = body
		r.contentType = contentType
	} else {
		r.body = map[string]string{"message": sr.Message, "model": sr.Model}
	}

	var reply Reply
	if err := c.doJSON(ctx, r, &reply); err != nil {
		return nil, fmt.Errorf("send message to chat %s: %w", id, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("send message to chat %s: %w", id, &APIError{StatusCode: http.StatusOK, Message: reply.Error})
	}
	return &reply, nil
}

func encodeMultipart(sr SendRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("message", sr.Message); err != nil {
		return nil, "", fmt.Errorf("failed to encode message field: %w", err)
	}
	if err := w.WriteField("model", sr.Model); err != nil {
		return nil, "", fmt.Errorf("failed to encode model field: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, sr.Image.Name))
	header.Set("Content-Type", sr.Image.MIMEType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(sr.Image.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
