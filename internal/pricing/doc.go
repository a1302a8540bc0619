// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pricing holds the per-model price table, the pre-send cost
// estimate, and the token recharge packages.
//
// The price table is loaded once from the backend and is read-only after
// that. Estimate is a pure function and safe to call on every keystroke.
package pricing
