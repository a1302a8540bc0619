// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"testing"

	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/registry"
)

func TestNextProjectName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"none", nil, "novo projeto"},
		{"unrelated", []string{"Trabalho", "novo projetox"}, "novo projeto"},
		{"bare exists", []string{"novo projeto"}, "novo projeto 2"},
		{"gap", []string{"novo projeto", "novo projeto 5"}, "novo projeto 6"},
		{"numbered only", []string{"novo projeto 3"}, "novo projeto 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextProjectName(tt.existing); got != tt.want {
				t.Errorf("NextProjectName(%v) = %q, want %q", tt.existing, got, tt.want)
			}
		})
	}
}

func newProjectController(t *testing.T) (*Controller, *fakeBackend, *registry.Registry, *recordingView) {
	t.Helper()
	b := newFakeBackend()
	reg := registry.New(b)
	v := newRecordingView()
	c := NewController(b, v, DefaultOptions()).WithRegistry(reg)
	if err := reg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	return c, b, reg, v
}

func TestCreateProject_AutoNames(t *testing.T) {
	c, _, reg, _ := newProjectController(t)
	ctx := context.Background()

	for _, name := range []string{"", "  ", ""} {
		if _, err := c.CreateProject(ctx, name); err != nil {
			t.Fatal(err)
		}
	}
	var names []string
	for _, p := range reg.Projects() {
		names = append(names, p.Name)
	}
	want := []string{"novo projeto", "novo projeto 2", "novo projeto 3"}
	if len(names) != len(want) {
		t.Fatalf("projects = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("project %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRenameProject_SkipsUnchanged(t *testing.T) {
	c, b, reg, _ := newProjectController(t)
	ctx := context.Background()
	pid, err := c.CreateProject(ctx, "Casa")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.RenameProject(ctx, pid, "Casa"); err != nil {
		t.Fatal(err)
	}
	if err := c.RenameProject(ctx, pid, ""); err != nil {
		t.Fatal(err)
	}
	if len(b.updates) != 0 {
		t.Errorf("updates = %d, want 0", len(b.updates))
	}

	if err := c.RenameProject(ctx, pid, "Lar"); err != nil {
		t.Fatal(err)
	}
	if p, _ := reg.Project(pid); p.Name != "Lar" {
		t.Errorf("name = %q", p.Name)
	}
}

func TestToggleProject(t *testing.T) {
	c, b, reg, _ := newProjectController(t)
	ctx := context.Background()
	pid, err := c.CreateProject(ctx, "P")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.ToggleProject(ctx, pid); err != nil {
		t.Fatal(err)
	}
	if p, _ := reg.Project(pid); !bool(p.Collapsed) {
		t.Error("project not collapsed after first toggle")
	}
	if err := c.ToggleProject(ctx, pid); err != nil {
		t.Fatal(err)
	}
	if p, _ := reg.Project(pid); bool(p.Collapsed) {
		t.Error("project still collapsed after second toggle")
	}

	if len(b.updates) != 2 || !*b.updates[0].Collapsed || *b.updates[1].Collapsed {
		t.Errorf("updates = %+v", b.updates)
	}

	// Unknown projects are ignored.
	if err := c.ToggleProject(ctx, 999); err != nil {
		t.Fatal(err)
	}
	if len(b.updates) != 2 {
		t.Error("toggle of unknown project reached the backend")
	}
}

func TestMoveAndRemoveFromProject(t *testing.T) {
	c, _, reg, v := newProjectController(t)
	ctx := context.Background()

	id, err := c.CreateConversation(ctx)
	if err != nil {
		t.Fatal(err)
	}
	pid, err := c.CreateProject(ctx, "Estudos")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.MoveToProject(ctx, id, pid); err != nil {
		t.Fatal(err)
	}
	if p, ok := reg.ProjectOf(id); !ok || p.ID != pid {
		t.Fatalf("ProjectOf(%s) = %+v, %v", id, p, ok)
	}
	if got := v.notices[len(v.notices)-1]; got != "Conversa movida com sucesso!" {
		t.Errorf("notice = %q", got)
	}
	if len(reg.View().Unfiled) != 0 {
		t.Errorf("unfiled = %v", reg.View().Unfiled)
	}

	if err := c.RemoveFromProject(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.ProjectOf(id); ok {
		t.Error("chat still filed after removal")
	}
	if got := reg.View().Unfiled; len(got) != 1 || got[0].ID != id {
		t.Errorf("unfiled = %v", got)
	}
}

func TestMoveToProject_AddsMembershipOnly(t *testing.T) {
	c, b, reg, _ := newProjectController(t)
	ctx := context.Background()

	id, err := c.CreateConversation(ctx)
	if err != nil {
		t.Fatal(err)
	}
	first, err := c.CreateProject(ctx, "A")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.CreateProject(ctx, "B")
	if err != nil {
		t.Fatal(err)
	}

	for _, pid := range []model.ProjectID{first, first, second} {
		if err := c.MoveToProject(ctx, id, pid); err != nil {
			t.Fatal(err)
		}
	}
	p, ok := reg.Project(first)
	if !ok || len(p.ChatIDs) != 1 || p.ChatIDs[0] != id {
		t.Errorf("project A members = %v, want [%s]", p.ChatIDs, id)
	}
	if p, _ := reg.Project(second); !p.Contains(id) {
		t.Errorf("project B members = %v, want %s", p.ChatIDs, id)
	}
	if b.sendCount() != 0 {
		t.Error("membership changes must not send messages")
	}

	v := reg.View()
	seen := 0
	for _, g := range v.Projects {
		for _, chat := range g.Chats {
			if chat.ID == id {
				seen++
			}
		}
	}
	if seen != 1 || len(v.Unfiled) != 0 {
		t.Errorf("chat listed %d times, unfiled = %v", seen, v.Unfiled)
	}
}

func TestCreateConversationInProject(t *testing.T) {
	c, _, reg, v := newProjectController(t)
	ctx := context.Background()
	pid, err := c.CreateProject(ctx, "P")
	if err != nil {
		t.Fatal(err)
	}

	id, err := c.CreateConversationInProject(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if c.State().Active != id {
		t.Errorf("active = %s, want %s", c.State().Active, id)
	}
	if p, ok := reg.ProjectOf(id); !ok || p.ID != pid {
		t.Errorf("chat not filed under project")
	}
	if got := v.notices[len(v.notices)-1]; got != "Conversa criada e adicionada ao projeto!" {
		t.Errorf("notice = %q", got)
	}
}

func TestDeleteProjectUnfilesChats(t *testing.T) {
	c, _, reg, _ := newProjectController(t)
	ctx := context.Background()
	pid, _ := c.CreateProject(ctx, "P")
	id, _ := c.CreateConversationInProject(ctx, pid)

	if err := c.DeleteProject(ctx, pid); err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.Chat(id); !ok {
		t.Error("chat vanished with its project")
	}
	if _, ok := reg.ProjectOf(id); ok {
		t.Error("chat still filed")
	}
}
