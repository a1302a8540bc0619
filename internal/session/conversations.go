// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jeranaias/sofia-tui/internal/model"
)

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// CreateConversation creates a placeholder-named conversation and makes it
// active.
func (c *Controller) CreateConversation(ctx context.Context) (model.ChatID, error) {
	chat, err := c.backend.CreateChat(ctx, c.opts.PlaceholderName)
	if err != nil {
		log.Printf("session: create chat: %v", err)
		return 0, fmt.Errorf("create conversation: %w", err)
	}

	c.mu.Lock()
	c.adoptLocked(chat)
	c.mu.Unlock()

	c.refreshRegistry(ctx)
	return chat.ID, nil
}

// CreateConversationInProject creates a conversation, files it under pid and
// makes it active.
func (c *Controller) CreateConversationInProject(ctx context.Context, pid model.ProjectID) (model.ChatID, error) {
	chat, err := c.backend.CreateChat(ctx, c.opts.PlaceholderName)
	if err != nil {
		c.notify("Erro ao criar chat no projeto: " + err.Error())
		return 0, fmt.Errorf("create conversation: %w", err)
	}
	if err := c.backend.AddChatToProject(ctx, pid, chat.ID); err != nil {
		c.notify("Erro ao criar chat no projeto: " + err.Error())
		c.refreshRegistry(ctx)
		return chat.ID, fmt.Errorf("add conversation %s to project %s: %w", chat.ID, pid, err)
	}

	c.refreshRegistry(ctx)

	c.mu.Lock()
	c.adoptLocked(chat)
	c.mu.Unlock()

	c.notify("Conversa criada e adicionada ao projeto!")
	return chat.ID, nil
}

// RenameConversation renames id. An empty name is ignored.
func (c *Controller) RenameConversation(ctx context.Context, id model.ChatID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || id.IsZero() {
		return nil
	}
	if err := c.backend.RenameChat(ctx, id, name); err != nil {
		c.notify("Erro ao renomear: " + err.Error())
		return fmt.Errorf("rename conversation %s: %w", id, err)
	}

	c.mu.Lock()
	if c.state.Active == id {
		c.state.Title = name
		c.view.SetTitle(name)
	}
	c.mu.Unlock()

	c.refreshRegistry(ctx)
	return nil
}

// DeleteConversation deletes id. Deleting the active conversation creates a
// replacement so there is always somewhere to type.
func (c *Controller) DeleteConversation(ctx context.Context, id model.ChatID) error {
	if id.IsZero() {
		return nil
	}
	if err := c.backend.DeleteChat(ctx, id); err != nil {
		c.notify("Erro ao excluir conversa: " + err.Error())
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}

	c.mu.Lock()
	wasActive := c.state.Active == id
	c.mu.Unlock()
	c.marks.ClearActiveIf(id)

	if wasActive {
		if _, err := c.CreateConversation(ctx); err != nil {
			// Leave the view empty rather than pointing at a deleted chat.
			c.mu.Lock()
			if c.state.Active == id {
				c.epoch++
				c.state.Active = 0
				c.state.Title = ""
				c.view.ClearMessages()
				c.view.SetTitle("")
			}
			c.mu.Unlock()
		}
		return nil
	}

	c.refreshRegistry(ctx)
	return nil
}

// ToggleSelected flips the list checkbox of id. Selection is single-select.
func (c *Controller) ToggleSelected(id model.ChatID) {
	c.marks.ToggleSelected(id)
}

// ClearSelection drops the list checkbox selection.
func (c *Controller) ClearSelection() {
	c.marks.ClearSelected()
}

func (c *Controller) notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Notify(msg)
}
