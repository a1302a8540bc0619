// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"

	"github.com/jeranaias/sofia-tui/internal/api"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSendInFlight is returned by SubmitMessage while another submission
	// is pending.
	ErrSendInFlight = errors.New("a message is already being sent")

	// ErrLoading is returned by SubmitMessage while the active conversation
	// is still being hydrated.
	ErrLoading = errors.New("conversation is still loading")
)

// Message prefixes shown in the transcript.
const (
	backendErrorPrefix   = "⚠️ "
	transportErrorPrefix = "Erro de conexão: "
)

// authErrors are shown by their own text rather than the wrapped chain.
var authErrors = []error{
	api.ErrNoToken,
	api.ErrTokenExpired,
	api.ErrUnauthorized,
	api.ErrPaymentRequired,
}

// FormatError turns a send failure into the text of an assistant-styled
// error message. Backend-reported messages are shown verbatim.
func FormatError(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.HasMessage() {
		return backendErrorPrefix + apiErr.Message
	}
	for _, sentinel := range authErrors {
		if errors.Is(err, sentinel) {
			return backendErrorPrefix + sentinel.Error()
		}
	}
	return transportErrorPrefix + err.Error()
}
