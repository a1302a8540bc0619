// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package payment drives a token purchase from invoice creation to credit.
//
// A Machine owns at most one payment session. Its lifecycle is:
//
//	created → polling → settled → credited
//	                  ↘ expired
//	                  ↘ cancelled
//
// Polling runs on a single tasks.Slot, so starting a new purchase cancels
// the previous timer. Once the invoice is paid the machine stops polling and
// sends exactly one credit request. A failed credit leaves the session
// settled; RetryCredit sends it again on explicit request. A Ledger, when
// configured, records credited references so the same invoice is never
// credited twice, even across restarts.
package payment
