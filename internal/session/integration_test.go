// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/api/apitest"
	"github.com/jeranaias/sofia-tui/internal/billing"
	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/registry"
	"github.com/jeranaias/sofia-tui/internal/session"
)

func TestController_AgainstBackend(t *testing.T) {
	srv := apitest.NewServer("tok")
	defer srv.Close()
	srv.SetBalance(10_000)
	srv.SetReply(func(_ int64, msg, _ string, _ bool) (string, string) {
		if msg == "Hello" {
			return "Hi there", ""
		}
		return "ok", ""
	})

	client := api.NewClient(srv.URL, api.NewTokenHolder("tok"))
	reg := registry.New(client)
	balance := billing.NewTracker(client)
	ctrl := session.NewController(client, nil, session.DefaultOptions()).
		WithRegistry(reg).
		WithBalance(balance)
	ctx := context.Background()

	out, err := ctrl.SubmitMessage(ctx, "Hello")
	require.NoError(t, err)
	require.Equal(t, session.OutcomeAccepted, out)

	st := ctrl.State()
	require.False(t, st.Active.IsZero())
	assert.Equal(t, "Hello", st.Title)

	name, ok := srv.ChatName(int64(st.Active))
	require.True(t, ok)
	assert.Equal(t, "Hello", name)

	chat, ok := reg.Chat(st.Active)
	require.True(t, ok, "registry should list the new chat")
	assert.Equal(t, "Hello", chat.Label())

	got, known := balance.Balance()
	require.True(t, known)
	assert.Less(t, got, int64(10_000))

	_, err = ctrl.SubmitMessage(ctx, "How are you?")
	require.NoError(t, err)
	name, _ = srv.ChatName(int64(st.Active))
	assert.Equal(t, "Hello", name, "second message must not rename")

	conv, err := client.GetChat(ctx, st.Active)
	require.NoError(t, err)
	var contents []string
	for _, m := range conv.Messages {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"Hello", "Hi there", "How are you?", "ok"}, contents)
}

func TestController_BackendErrorReply(t *testing.T) {
	srv := apitest.NewServer("tok")
	defer srv.Close()
	srv.SetReply(func(int64, string, string, bool) (string, string) {
		return "", "Saldo insuficiente"
	})

	client := api.NewClient(srv.URL, api.NewTokenHolder("tok"))
	var msgs []model.Message
	view := &appendView{append: func(m model.Message) { msgs = append(msgs, m) }}
	ctrl := session.NewController(client, view, session.DefaultOptions())

	out, err := ctrl.SubmitMessage(context.Background(), "Oi")
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeFailed, out)
	require.Len(t, msgs, 2)
	assert.Equal(t, "⚠️ Saldo insuficiente", msgs[1].Content)
	assert.True(t, msgs[1].IsError)
	assert.Equal(t, model.PlaceholderName, ctrl.State().Title)
}

type appendView struct {
	session.NopView
	append func(model.Message)
}

func (v *appendView) AppendMessage(m model.Message) { v.append(m) }
