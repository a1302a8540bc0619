// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local cache and transcript export.
//
// The cache is a single SQLite file (pure Go driver, no cgo) holding:
//
//   - snapshots: the last registry listing, for warm start
//   - credited_payments: payment references already credited, so a credit
//     call is never repeated across restarts
//
// # Usage
//
//	store, err := storage.Open(cfg.CachePath())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	reg := registry.New(client).WithCache(store)
//	machine := payment.New(client, payment.Config{...}).WithLedger(store)
//
// Export writes a conversation as Markdown or JSON:
//
//	path, err := storage.Export(conv, dir, storage.FormatMarkdown)
package storage
