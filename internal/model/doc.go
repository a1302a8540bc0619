// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the gateway, the
// registry and the session controller: conversations, messages, projects and
// token transactions, with JSON tags matching the Sofia backend.
//
// The backend is loose about a few encodings (ids as numbers or strings,
// booleans as 0/1, several timestamp layouts); the custom unmarshalers in
// this package absorb that so callers only see Go types.
package model
