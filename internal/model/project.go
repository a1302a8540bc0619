// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Project groups conversations in the sidebar. A conversation belongs to at
// most one project.
type Project struct {
	ID        ProjectID `json:"id"`
	Name      string    `json:"name"`
	ChatIDs   []ChatID  `json:"chat_ids"`
	Collapsed Flag      `json:"collapsed"`
}

// Contains reports whether id is a member of the project.
func (p Project) Contains(id ChatID) bool {
	for _, c := range p.ChatIDs {
		if c == id {
			return true
		}
	}
	return false
}
