// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat session controller.
//
// The Controller owns which conversation is active and sequences message
// submission. Every async flow snapshots the active conversation id when it
// starts and compares it when it resumes; a reply for a conversation the user
// has left is discarded, never shown in the one they switched to.
//
// # Key Types
//
//   - Controller: select, submit, conversation and project operations
//   - State: snapshot of the session (active id, title, sending, model)
//   - View: the rendering surface the controller drives
//   - Outcome: what happened to a submission
//
// # Usage
//
//	ctrl := session.NewController(client, view, session.DefaultOptions()).
//	    WithRegistry(reg).
//	    WithMarks(marks).
//	    WithBalance(tracker)
//
//	ctrl.SelectConversation(ctx, 42)
//	outcome, err := ctrl.SubmitMessage(ctx, "Hello")
//
// # Errors
//
// Failures never escape the controller as Go errors except for the two
// "busy" sentinels. Transport and backend errors become one assistant-styled
// message in the view; stale replies are only logged.
package session
