// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/api/apitest"
	"github.com/jeranaias/sofia-tui/internal/payment"
	"github.com/jeranaias/sofia-tui/internal/pricing"
	"github.com/jeranaias/sofia-tui/internal/storage"
)

func TestPurchaseEndToEnd(t *testing.T) {
	srv := apitest.NewServer("tok")
	defer srv.Close()
	client := api.NewClient(srv.URL, api.NewTokenHolder("tok"))

	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	credited := make(chan payment.Session, 1)
	m := payment.New(client, payment.Config{PollInterval: 5 * time.Millisecond}).
		WithLedger(store).
		OnCredited(func(s payment.Session) { credited <- s })
	defer m.Stop()

	pkg, err := pricing.FindPackage("standard")
	require.NoError(t, err)
	q, err := pricing.NewQuote(pkg, 0, 94000)
	require.NoError(t, err)

	sess, err := m.Purchase(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPolling, sess.Status)
	assert.True(t, m.Polling())

	srv.MarkPaid(sess.Reference)

	select {
	case s := <-credited:
		assert.Equal(t, payment.StatusCredited, s.Status)
	case <-time.After(3 * time.Second):
		t.Fatal("payment never credited")
	}

	assert.Equal(t, 1, srv.CreditCalls(sess.Reference))
	assert.Equal(t, int64(2_500_000), srv.Balance())
	assert.Eventually(t, func() bool { return !m.Polling() }, time.Second, 5*time.Millisecond,
		"timer still registered after credit")

	ok, err := store.IsCredited(context.Background(), sess.Reference)
	require.NoError(t, err)
	assert.True(t, ok)
}
