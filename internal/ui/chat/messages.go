// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/payment"
	"github.com/jeranaias/sofia-tui/internal/registry"
)

// =============================================================================
// VIEW MESSAGES (from the session controller, via Bridge)
// =============================================================================

// ClearMessagesMsg empties the transcript.
type ClearMessagesMsg struct{}

// SetMessagesMsg replaces the transcript.
type SetMessagesMsg struct {
	Messages []model.Message
}

// AppendMessageMsg adds one message to the transcript.
type AppendMessageMsg struct {
	Message model.Message
}

// TitleMsg sets the conversation title.
type TitleMsg struct {
	Title string
}

// PendingMsg shows or hides the typing indicator.
type PendingMsg struct {
	Pending bool
}

// SendEnabledMsg enables or disables submission.
type SendEnabledMsg struct {
	Enabled bool
}

// NoticeMsg shows a transient status line.
type NoticeMsg struct {
	Text string
}

// =============================================================================
// STATE MESSAGES (subscriptions)
// =============================================================================

// RegistryMsg carries a fresh sidebar listing.
type RegistryMsg struct {
	View registry.View
}

// MarksMsg carries the active/selected marks.
type MarksMsg struct {
	State registry.MarkState
}

// BalanceMsg carries the formatted balance.
type BalanceMsg struct {
	Display string
}

// PaymentMsg carries a payment session transition.
type PaymentMsg struct {
	Session payment.Session
}

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// panelMsg replaces the info panel (history, packages, models, help).
type panelMsg struct {
	title string
	body  string
}

// restoreInputMsg puts a rejected draft back into the input.
type restoreInputMsg struct {
	text   string
	notice string
	// enable re-enables submission when the controller never disabled it.
	enable bool
}

// noticeExpiredMsg clears the notice if nothing newer replaced it.
type noticeExpiredMsg struct {
	seq int
}

// quitMsg asks the program to exit.
type quitMsg struct{}
