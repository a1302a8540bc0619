// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package billing tracks the token balance and formats balances and
// transaction history for display.
package billing
