// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"sort"

	"github.com/jeranaias/sofia-tui/internal/model"
)

// DefaultRecentLimit is how many unfiled conversations the quick list shows.
const DefaultRecentLimit = 10

// Group is a project with its member conversations resolved.
type Group struct {
	Project model.Project
	Chats   []model.ChatSummary
}

// Partitioned is the sidebar layout: projects with their chats nested, and
// every chat that belongs to no project.
type Partitioned struct {
	Projects []Group
	Unfiled  []model.ChatSummary
}

// Partition splits chats between projects. A chat listed by several projects
// goes to the first one; ids that match no chat are skipped. Every chat ends
// up in exactly one place.
func Partition(chats []model.ChatSummary, projects []model.Project) Partitioned {
	byID := make(map[model.ChatID]model.ChatSummary, len(chats))
	for _, c := range chats {
		byID[c.ID] = c
	}

	placed := make(map[model.ChatID]bool, len(chats))
	out := Partitioned{Projects: make([]Group, 0, len(projects))}

	for _, p := range projects {
		g := Group{Project: p}
		for _, id := range p.ChatIDs {
			c, ok := byID[id]
			if !ok || placed[id] {
				continue
			}
			placed[id] = true
			g.Chats = append(g.Chats, c)
		}
		out.Projects = append(out.Projects, g)
	}

	for _, c := range chats {
		if !placed[c.ID] {
			placed[c.ID] = true
			out.Unfiled = append(out.Unfiled, c)
		}
	}
	return out
}

// Recent orders chats most-recent-first and keeps at most limit of them.
// Chats with equal timestamps keep their source order. A limit of zero or
// less means no limit.
func Recent(chats []model.ChatSummary, limit int) []model.ChatSummary {
	out := make([]model.ChatSummary, len(chats))
	copy(out, chats)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
