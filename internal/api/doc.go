// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the authenticated gateway to the Sofia backend.
//
// Every call carries the bearer token held by a TokenHolder. Reads are
// retried with exponential backoff on 429 and 5xx; writes are sent once,
// since a repeated message send or credit call is not safe to replay.
//
// # Errors
//
// Backend `{"error": "..."}` bodies surface as *APIError with the message
// kept verbatim. Well-known statuses also match a sentinel:
//
//	ErrUnauthorized      401
//	ErrPaymentRequired   402
//	ErrNotFound          404
//	ErrRateLimited       429
//
// so callers can use either errors.Is or errors.As.
//
// # Usage
//
//	tokens := api.NewTokenHolder(token)
//	client := api.NewClient(cfg.API.BaseURL, tokens).
//	    WithTimeout(cfg.API.Timeout.Duration).
//	    WithRateLimit(cfg.API.RequestsPerSecond)
//
//	reply, err := client.SendMessage(ctx, chatID, api.SendRequest{Message: "Olá", Model: "gpt-5"})
package api
