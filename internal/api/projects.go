// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jeranaias/sofia-tui/internal/model"
)

// ListProjects returns the user's projects with their chat ids.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var resp struct {
		Projects []model.Project `json:"projects"`
	}
	if err := c.getJSON(ctx, "/api/projects", &resp); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return resp.Projects, nil
}

// CreateProject creates a project and returns its id.
func (c *Client) CreateProject(ctx context.Context, name string) (model.ProjectID, error) {
	var resp struct {
		ID        model.ProjectID `json:"id"`
		ProjectID model.ProjectID `json:"project_id"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/projects", map[string]string{"name": name}, &resp); err != nil {
		return 0, fmt.Errorf("create project: %w", err)
	}
	if resp.ProjectID != 0 {
		return resp.ProjectID, nil
	}
	return resp.ID, nil
}

// ProjectUpdate is a partial project update; nil fields are left alone.
type ProjectUpdate struct {
	Name      *string `json:"name,omitempty"`
	Collapsed *bool   `json:"collapsed,omitempty"`
}

// UpdateProject renames a project or changes its collapsed flag.
func (c *Client) UpdateProject(ctx context.Context, id model.ProjectID, update ProjectUpdate) error {
	if err := c.sendJSON(ctx, http.MethodPatch, "/api/projects/"+id.String(), update, nil); err != nil {
		return fmt.Errorf("update project %s: %w", id, err)
	}
	return nil
}

// DeleteProject deletes a project. Its conversations are kept.
func (c *Client) DeleteProject(ctx context.Context, id model.ProjectID) error {
	if err := c.sendJSON(ctx, http.MethodDelete, "/api/projects/"+id.String(), nil, nil); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// AddChatToProject adds chatID to project id. Adding a chat that is
// already a member is a no-op on the backend.
func (c *Client) AddChatToProject(ctx context.Context, id model.ProjectID, chatID model.ChatID) error {
	body := map[string]model.ChatID{"chat_id": chatID}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/projects/"+id.String()+"/chats", body, nil); err != nil {
		return fmt.Errorf("add chat %s to project %s: %w", chatID, id, err)
	}
	return nil
}

// RemoveChatFromProject removes chatID from project id.
func (c *Client) RemoveChatFromProject(ctx context.Context, id model.ProjectID, chatID model.ChatID) error {
	path := "/api/projects/" + id.String() + "/chats/" + chatID.String()
	if err := c.sendJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove chat %s from project %s: %w", chatID, id, err)
	}
	return nil
}
