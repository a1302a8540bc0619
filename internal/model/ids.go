// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ChatID is the server-assigned conversation identifier. The client treats
// it as opaque; the zero value means "no conversation".
type ChatID int64

// ProjectID is the server-assigned project identifier.
type ProjectID int64

// String renders the id the way it appears in URL paths.
func (id ChatID) String() string { return strconv.FormatInt(int64(id), 10) }

// IsZero reports whether id is unset.
func (id ChatID) IsZero() bool { return id == 0 }

// String renders the id the way it appears in URL paths.
func (id ProjectID) String() string { return strconv.FormatInt(int64(id), 10) }

// UnmarshalJSON accepts both 42 and "42".
func (id *ChatID) UnmarshalJSON(data []byte) error {
	n, err := parseLooseInt(data)
	if err != nil {
		return fmt.Errorf("chat id: %w", err)
	}
	*id = ChatID(n)
	return nil
}

// UnmarshalJSON accepts both 7 and "7".
func (id *ProjectID) UnmarshalJSON(data []byte) error {
	n, err := parseLooseInt(data)
	if err != nil {
		return fmt.Errorf("project id: %w", err)
	}
	*id = ProjectID(n)
	return nil
}

// ParseChatID parses a chat id typed by the user.
func ParseChatID(s string) (ChatID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid chat id %q", s)
	}
	return ChatID(n), nil
}

// ParseProjectID parses a project id typed by the user.
func ParseProjectID(s string) (ProjectID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return ProjectID(n), nil
}

func parseLooseInt(data []byte) (int64, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		return strconv.ParseInt(s, 10, 64)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, err
	}
	return n.Int64()
}

// =============================================================================
// LOOSE SCALARS
// =============================================================================

// Flag is a boolean the backend may encode as true/false, 1/0 or "1"/"0".
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(data)), `"`) {
	case "true", "1":
		*f = true
	case "false", "0", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag %s", data)
	}
	return nil
}

// Timestamp is a time parsed from any of the layouts the backend emits:
// RFC 3339, SQLite's "2006-01-02 15:04:05", or the RFC 1123 form Flask
// uses when serialising datetimes.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// UnmarshalJSON implements json.Unmarshaler. Unknown layouts decode to the
// zero time rather than failing the whole payload.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			return nil
		}
	}
	ts.Time = time.Time{}
	return nil
}

// MarshalJSON emits RFC 3339, or null for the zero time.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339))
}
