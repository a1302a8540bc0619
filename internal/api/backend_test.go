// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/api/apitest"
	"github.com/jeranaias/sofia-tui/internal/model"
)

var samplePNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newBackend(t *testing.T) (*apitest.Server, *api.Client) {
	t.Helper()
	srv := apitest.NewServer("secret")
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, api.NewTokenHolder("secret")).WithMaxRetries(0)
	return srv, client
}

func TestBackend_ChatLifecycle(t *testing.T) {
	srv, client := newBackend(t)
	ctx := context.Background()

	first, err := client.CreateChat(ctx, "Nova Conversa")
	require.NoError(t, err)
	second, err := client.CreateChat(ctx, "Outra")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	chats, err := client.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, second.ID, chats[0].ID, "newest chat first")

	reply, err := client.SendMessage(ctx, first.ID, api.SendRequest{Message: "olá", Model: "gpt-5"})
	require.NoError(t, err)
	assert.Equal(t, "echo: olá", reply.Content)
	assert.Positive(t, reply.TokensUsed)

	conv, err := client.GetChat(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, model.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, model.RoleAssistant, conv.Messages[1].Role)
	assert.NotEmpty(t, conv.Messages[0].ID, "local ids assigned")

	require.NoError(t, client.RenameChat(ctx, first.ID, "Receitas"))
	name, ok := srv.ChatName(int64(first.ID))
	require.True(t, ok)
	assert.Equal(t, "Receitas", name)

	require.NoError(t, client.DeleteChat(ctx, first.ID))
	_, err = client.GetChat(ctx, first.ID)
	assert.True(t, errors.Is(err, api.ErrNotFound))
}

func TestBackend_ErrorReply(t *testing.T) {
	srv, client := newBackend(t)
	ctx := context.Background()
	srv.SetReply(func(int64, string, string, bool) (string, string) {
		return "", "Saldo insuficiente"
	})

	chat, err := client.CreateChat(ctx, "x")
	require.NoError(t, err)

	_, err = client.SendMessage(ctx, chat.ID, api.SendRequest{Message: "oi"})
	require.Error(t, err)
	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Saldo insuficiente", apiErr.Message)
}

func TestBackend_ImageMessage(t *testing.T) {
	srv, client := newBackend(t)
	ctx := context.Background()

	var sawImage atomic.Bool
	srv.SetReply(func(_ int64, _ string, _ string, hasImage bool) (string, string) {
		sawImage.Store(hasImage)
		return "vejo um gato", ""
	})

	att, err := api.NewAttachment("gato.png", samplePNG)
	require.NoError(t, err)

	chat, err := client.CreateChat(ctx, "x")
	require.NoError(t, err)
	reply, err := client.SendMessage(ctx, chat.ID, api.SendRequest{Message: "Analise esta imagem", Image: att})
	require.NoError(t, err)
	assert.Equal(t, "vejo um gato", reply.Content)
	assert.True(t, sawImage.Load())
}

func TestBackend_Projects(t *testing.T) {
	_, client := newBackend(t)
	ctx := context.Background()

	chat, err := client.CreateChat(ctx, "c")
	require.NoError(t, err)

	a, err := client.CreateProject(ctx, "novo projeto 1")
	require.NoError(t, err)
	b, err := client.CreateProject(ctx, "novo projeto 2")
	require.NoError(t, err)

	require.NoError(t, client.AddChatToProject(ctx, a, chat.ID))
	projects, err := client.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.True(t, projects[0].Contains(chat.ID))

	// Adding is idempotent and never detaches the chat from another project.
	require.NoError(t, client.AddChatToProject(ctx, a, chat.ID))
	require.NoError(t, client.AddChatToProject(ctx, b, chat.ID))
	projects, err = client.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.ChatID{chat.ID}, projects[0].ChatIDs)
	assert.True(t, projects[1].Contains(chat.ID))

	require.NoError(t, client.RemoveChatFromProject(ctx, a, chat.ID))

	collapsed := true
	name := "Trabalho"
	require.NoError(t, client.UpdateProject(ctx, b, api.ProjectUpdate{Name: &name, Collapsed: &collapsed}))
	projects, err = client.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Trabalho", projects[1].Name)
	assert.True(t, bool(projects[1].Collapsed))

	require.NoError(t, client.RemoveChatFromProject(ctx, b, chat.ID))
	require.NoError(t, client.DeleteProject(ctx, a))
	projects, err = client.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Empty(t, projects[0].ChatIDs)
}

func TestBackend_PurchaseFlow(t *testing.T) {
	srv, client := newBackend(t)
	ctx := context.Background()
	srv.SetBalance(1000)

	inv, err := client.PurchaseTokens(ctx, api.PurchaseRequest{Package: "light", Tokens: 1_250_000, Sats: 10638})
	require.NoError(t, err)
	require.NotEmpty(t, inv.PaymentHash)
	assert.Contains(t, inv.QRCode, "lnbc")

	paid, err := client.CheckPayment(ctx, inv.PaymentHash)
	require.NoError(t, err)
	assert.False(t, paid)

	srv.MarkPaid(inv.PaymentHash)
	paid, err = client.CheckPayment(ctx, inv.PaymentHash)
	require.NoError(t, err)
	assert.True(t, paid)

	require.NoError(t, client.CreditTokens(ctx, inv.PaymentHash, 1_250_000))
	balance, err := client.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1_251_000), balance)
	assert.Equal(t, 1, srv.CreditCalls(inv.PaymentHash))

	txs, err := client.Transactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].IsCredit())
	assert.Equal(t, int64(1_250_000), txs[0].Amount)
}

func TestBackend_Models(t *testing.T) {
	_, client := newBackend(t)

	models, err := client.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "gpt-5", models[0].ID)
	assert.InDelta(t, 1.25, models[0].CostPer1KInput, 1e-9)
}

func TestBackend_WrongToken(t *testing.T) {
	srv, _ := newBackend(t)
	client := api.NewClient(srv.URL, api.NewTokenHolder("wrong"))

	_, err := client.ListChats(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrUnauthorized))
	assert.Contains(t, err.Error(), "Token inválido")
}
