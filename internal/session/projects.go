// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/model"
)

// =============================================================================
// PROJECT NAMING
// =============================================================================

// AutoProjectName is the base name for projects created without one.
const AutoProjectName = "novo projeto"

var autoProjectPattern = regexp.MustCompile(`^novo projeto(?: (\d+))?$`)

// NextProjectName returns "novo projeto" when no project carries an
// automatic name, otherwise "novo projeto N" with N one above the highest.
// The bare name counts as 1.
func NextProjectName(existing []string) string {
	highest := 0
	for _, name := range existing {
		m := autoProjectPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n := 1
		if m[1] != "" {
			if v, err := strconv.Atoi(m[1]); err == nil {
				n = v
			}
		}
		if n > highest {
			highest = n
		}
	}
	if highest == 0 {
		return AutoProjectName
	}
	return AutoProjectName + " " + strconv.Itoa(highest+1)
}

// =============================================================================
// PROJECT OPERATIONS
// =============================================================================

// CreateProject creates a project. An empty name gets an automatic one.
func (c *Controller) CreateProject(ctx context.Context, name string) (model.ProjectID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = NextProjectName(c.projectNames())
	}

	id, err := c.backend.CreateProject(ctx, name)
	if err != nil {
		c.notify("Erro ao criar projeto: " + err.Error())
		return 0, fmt.Errorf("create project: %w", err)
	}
	c.refreshRegistry(ctx)
	return id, nil
}

// RenameProject renames pid. An empty or unchanged name is ignored.
func (c *Controller) RenameProject(ctx context.Context, pid model.ProjectID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if c.registry != nil {
		if p, ok := c.registry.Project(pid); ok && p.Name == name {
			return nil
		}
	}

	if err := c.backend.UpdateProject(ctx, pid, api.ProjectUpdate{Name: &name}); err != nil {
		c.notify("Erro ao renomear projeto: " + err.Error())
		return fmt.Errorf("rename project %s: %w", pid, err)
	}
	c.refreshRegistry(ctx)
	return nil
}

// DeleteProject deletes pid. Its conversations survive, unfiled.
func (c *Controller) DeleteProject(ctx context.Context, pid model.ProjectID) error {
	if err := c.backend.DeleteProject(ctx, pid); err != nil {
		c.notify("Erro ao deletar projeto: " + err.Error())
		return fmt.Errorf("delete project %s: %w", pid, err)
	}
	c.refreshRegistry(ctx)
	return nil
}

// ToggleProject flips the collapsed flag of pid.
func (c *Controller) ToggleProject(ctx context.Context, pid model.ProjectID) error {
	current := false
	if c.registry != nil {
		p, ok := c.registry.Project(pid)
		if !ok {
			return nil
		}
		current = bool(p.Collapsed)
	}

	next := !current
	if err := c.backend.UpdateProject(ctx, pid, api.ProjectUpdate{Collapsed: &next}); err != nil {
		return fmt.Errorf("toggle project %s: %w", pid, err)
	}
	if c.registry != nil {
		c.registry.SetCollapsed(pid, next)
	}
	return nil
}

// MoveToProject adds chat id to the membership of pid. Adding is
// idempotent and leaves any other membership untouched.
func (c *Controller) MoveToProject(ctx context.Context, id model.ChatID, pid model.ProjectID) error {
	if id.IsZero() {
		return nil
	}
	if err := c.backend.AddChatToProject(ctx, pid, id); err != nil {
		c.notify("Erro ao mover conversa: " + err.Error())
		return fmt.Errorf("move conversation %s to project %s: %w", id, pid, err)
	}
	c.refreshRegistry(ctx)
	c.notify("Conversa movida com sucesso!")
	return nil
}

// RemoveFromProject unfiles chat id from whichever project holds it.
func (c *Controller) RemoveFromProject(ctx context.Context, id model.ChatID) error {
	if c.registry == nil || id.IsZero() {
		return nil
	}
	p, ok := c.registry.ProjectOf(id)
	if !ok {
		return nil
	}
	if err := c.backend.RemoveChatFromProject(ctx, p.ID, id); err != nil {
		c.notify("Erro ao remover do projeto: " + err.Error())
		return fmt.Errorf("remove conversation %s from project %s: %w", id, p.ID, err)
	}
	c.refreshRegistry(ctx)
	return nil
}

func (c *Controller) projectNames() []string {
	if c.registry == nil {
		return nil
	}
	projects := c.registry.Projects()
	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	return names
}
