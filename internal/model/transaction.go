// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// TransactionPurchase is the type of a recharge entry.
const TransactionPurchase = "purchase"

// Transaction is one entry of the token ledger.
type Transaction struct {
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	Model     string    `json:"model,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

// IsCredit reports whether the entry added tokens to the balance.
func (t Transaction) IsCredit() bool {
	return t.Type == TransactionPurchase || t.Amount > 0
}

// ModelPrice is one entry of GET /api/models.
type ModelPrice struct {
	ID              string  `json:"id"`
	Name            string  `json:"name,omitempty"`
	CostPer1KInput  float64 `json:"cost_per_1k_input"`
	CostPer1KOutput float64 `json:"cost_per_1k_output"`
}
