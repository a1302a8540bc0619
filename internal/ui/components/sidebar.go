// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/registry"
	"github.com/jeranaias/sofia-tui/internal/ui/styles"
)

// =============================================================================
// SIDEBAR ITEMS
// =============================================================================

// ItemKind distinguishes sidebar rows.
type ItemKind int

const (
	ItemProject ItemKind = iota
	ItemChat
)

// Item is one navigable sidebar row.
type Item struct {
	Kind    ItemKind
	Project model.ProjectID
	Chat    model.ChatID
	Label   string
	// Nested is true for chats drawn under a project.
	Nested    bool
	Collapsed bool
}

// SidebarItems flattens a registry view into navigable rows: each project
// followed by its chats unless collapsed, then the recent unfiled chats.
func SidebarItems(v registry.View) []Item {
	var items []Item
	for _, g := range v.Projects {
		collapsed := bool(g.Project.Collapsed)
		items = append(items, Item{
			Kind:      ItemProject,
			Project:   g.Project.ID,
			Label:     g.Project.Name,
			Collapsed: collapsed,
		})
		if collapsed {
			continue
		}
		for _, c := range g.Chats {
			items = append(items, Item{
				Kind:    ItemChat,
				Project: g.Project.ID,
				Chat:    c.ID,
				Label:   c.Label(),
				Nested:  true,
			})
		}
	}
	for _, c := range v.Recent {
		items = append(items, Item{Kind: ItemChat, Chat: c.ID, Label: c.Label()})
	}
	return items
}

// =============================================================================
// SIDEBAR RENDERING
// =============================================================================

// Sidebar draws the conversation list.
type Sidebar struct {
	Theme   *styles.Theme
	Width   int
	Height  int
	Focused bool
	Cursor  int
}

// Render draws items with their marks. The active conversation gets the
// active marker and style; the selected one gets a checked box.
func (s Sidebar) Render(v registry.View, items []Item, marks registry.MarkState) string {
	inner := s.Width - 4
	if inner < 8 {
		inner = 8
	}

	var lines []string
	title := "Conversas"
	if v.Stale {
		title += " " + s.Theme.StaleBadge.Render("(cache)")
	}
	lines = append(lines, s.Theme.HeaderBrand.Render(title))

	projectsDone := false
	for i, it := range items {
		if it.Kind == ItemChat && !it.Nested && !projectsDone {
			projectsDone = true
			lines = append(lines, s.Theme.SectionTitle.Render("Recentes"))
		}
		if it.Kind == ItemProject && i == 0 {
			lines = append(lines, s.Theme.SectionTitle.Render("Projetos"))
		}
		lines = append(lines, s.row(it, marks, inner, i == s.Cursor && s.Focused))
	}
	if len(items) == 0 {
		lines = append(lines, s.Theme.MutedStyle.Render("Nenhuma conversa"))
	}

	body := strings.Join(clip(lines, s.Height-2, s.Cursor+2), "\n")
	box := s.Theme.Sidebar
	if s.Focused {
		box = s.Theme.SidebarFocused
	}
	return box.Width(s.Width - 2).Render(body)
}

func (s Sidebar) row(it Item, marks registry.MarkState, width int, cursor bool) string {
	var line string
	switch it.Kind {
	case ItemProject:
		marker := styles.MarkerExpanded
		if it.Collapsed {
			marker = styles.MarkerCollapsed
		}
		line = s.Theme.ProjectName.Render(fit(marker+" "+it.Label, width))
	default:
		status := marks.Status(it.Chat)
		active := styles.MarkerInactive
		if status.Has(registry.StatusActive) {
			active = styles.MarkerActive
		}
		box := styles.MarkerUnchecked
		if status.Has(registry.StatusSelected) {
			box = styles.MarkerChecked
		}
		indent := ""
		if it.Nested {
			indent = "  "
		}
		prefix := indent + box + " " + active + " "
		text := fit(prefix+it.Label, width)
		if status.Has(registry.StatusActive) {
			line = s.Theme.ChatActive.Render(text)
		} else {
			line = s.Theme.ChatItem.Render(text)
		}
	}
	if cursor {
		line = s.Theme.ChatCursor.Render(line)
	}
	return line
}

// clip keeps at most height lines, scrolled so that line focus is visible.
func clip(lines []string, height, focus int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := 0
	if focus >= height {
		start = focus - height + 1
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}
