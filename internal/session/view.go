// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/sofia-tui/internal/model"

// View is the rendering surface the controller drives.
//
// The controller calls View methods while holding its lock, so that checking
// the active conversation and drawing into it happen as one step.
// Implementations must not call back into the Controller synchronously.
type View interface {
	// ClearMessages empties the transcript.
	ClearMessages()
	// SetMessages replaces the transcript with a hydrated history.
	SetMessages(msgs []model.Message)
	// AppendMessage adds one message at the end.
	AppendMessage(msg model.Message)
	// SetTitle shows the conversation title.
	SetTitle(title string)
	// SetPending shows or hides the "assistant is typing" indicator.
	SetPending(pending bool)
	// SetSendEnabled enables or disables the send affordance.
	SetSendEnabled(enabled bool)
	// Notify shows a transient status line, outside the transcript.
	Notify(msg string)
}

// NopView discards everything. Useful for one-shot commands.
type NopView struct{}

func (NopView) ClearMessages()              {}
func (NopView) SetMessages([]model.Message) {}
func (NopView) AppendMessage(model.Message) {}
func (NopView) SetTitle(string)             {}
func (NopView) SetPending(bool)             {}
func (NopView) SetSendEnabled(bool)         {}
func (NopView) Notify(string)               {}
