// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/util"
)

// =============================================================================
// TRANSCRIPT EXPORT
// =============================================================================

// Format selects the export encoding.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ErrEmptyConversation is returned when there is nothing to export.
var ErrEmptyConversation = errors.New("conversation has no messages")

// ParseFormat maps a user-supplied name or extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Markdown renders a conversation as a Markdown document.
func Markdown(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + conv.Chat.Title() + "\n\n")
	if !conv.Chat.CreatedAt.IsZero() {
		sb.WriteString("Criada em: " + conv.Chat.CreatedAt.Format(time.RFC3339) + "\n\n")
	}
	sb.WriteString("---\n\n")

	for _, msg := range conv.Messages {
		if msg.IsError {
			continue
		}
		sb.WriteString("**" + msg.Role.DisplayName() + "**")
		if !msg.Timestamp.IsZero() {
			sb.WriteString(" (" + msg.Timestamp.Format("15:04") + ")")
		}
		sb.WriteString(":\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// Export writes conv to dir in the given format and returns the file path.
// The file is written atomically.
func Export(conv *model.Conversation, dir string, format Format) (string, error) {
	if conv == nil || len(conv.Messages) == 0 {
		return "", ErrEmptyConversation
	}

	var data []byte
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode conversation: %w", err)
		}
		data = b
	default:
		format = FormatMarkdown
		data = []byte(Markdown(conv))
	}

	path := filepath.Join(dir, ExportFileName(conv.Chat, format))
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// ExportFileName builds a file name from the chat title and id.
func ExportFileName(chat model.ChatSummary, format Format) string {
	slug := unsafeFileChars.ReplaceAllString(strings.ToLower(chat.Title()), "-")
	slug = strings.Trim(slug, "-.")
	slug = util.TruncateRunesNoEllipsis(slug, 40)
	if slug == "" {
		slug = "conversa"
	}
	return fmt.Sprintf("sofia-%s-%s.%s", chat.ID, slug, format)
}
