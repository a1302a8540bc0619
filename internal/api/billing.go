// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jeranaias/sofia-tui/internal/model"
)

// DefaultTransactionLimit is how many ledger entries the history view asks for.
const DefaultTransactionLimit = 50

// Balance returns the user's token balance.
func (c *Client) Balance(ctx context.Context) (int64, error) {
	var resp struct {
		Balance int64 `json:"balance"`
	}
	if err := c.getJSON(ctx, "/api/user/balance", &resp); err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return resp.Balance, nil
}

// Models returns the model price list.
func (c *Client) Models(ctx context.Context) ([]model.ModelPrice, error) {
	var resp struct {
		Models []model.ModelPrice `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/models", &resp); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return resp.Models, nil
}

// PurchaseRequest asks the backend for a Lightning invoice.
type PurchaseRequest struct {
	Package string `json:"package"`
	Tokens  int64  `json:"tokens"`
	Sats    int64  `json:"sats"`
}

// Invoice is the backend's answer to a purchase: a payable QR payload and
// the reference to poll.
type Invoice struct {
	QRCode         string `json:"qr_code"`
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request,omitempty"`
}

// PurchaseTokens creates an invoice for a recharge package.
func (c *Client) PurchaseTokens(ctx context.Context, pr PurchaseRequest) (*Invoice, error) {
	var inv Invoice
	if err := c.sendJSON(ctx, http.MethodPost, "/api/tokens/purchase", pr, &inv); err != nil {
		return nil, fmt.Errorf("purchase tokens: %w", err)
	}
	if inv.PaymentHash == "" {
		return nil, fmt.Errorf("purchase tokens: backend returned no payment hash")
	}
	return &inv, nil
}

// CheckPayment reports whether the invoice identified by hash is paid.
func (c *Client) CheckPayment(ctx context.Context, hash string) (bool, error) {
	var resp struct {
		Paid bool `json:"paid"`
	}
	if err := c.getJSON(ctx, "/api/tokens/check-payment/"+url.PathEscape(hash), &resp); err != nil {
		return false, fmt.Errorf("check payment: %w", err)
	}
	return resp.Paid, nil
}

// CreditTokens asks the backend to credit a settled invoice. It is sent
// exactly once per call; callers decide whether to try again.
func (c *Client) CreditTokens(ctx context.Context, hash string, tokens int64) error {
	body := map[string]any{"payment_hash": hash, "tokens": tokens}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/tokens/credit", body, nil); err != nil {
		return fmt.Errorf("credit tokens: %w", err)
	}
	return nil
}

// Transactions returns the newest limit ledger entries.
func (c *Client) Transactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	var resp struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	if err := c.getJSON(ctx, "/api/tokens/transactions?limit="+strconv.Itoa(limit), &resp); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return resp.Transactions, nil
}
