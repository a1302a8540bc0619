// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package billing

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jeranaias/sofia-tui/internal/model"
)

// =============================================================================
// TOKEN FORMATTING
// =============================================================================

// FormatBalance renders the sidebar balance: 1.3M, 12k, 950. Thousands are
// floored so the balance is never overstated.
func FormatBalance(balance int64) string {
	switch {
	case balance >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(balance)/1_000_000)
	case balance >= 1_000:
		return strconv.FormatInt(balance/1_000, 10) + "k"
	default:
		return strconv.FormatInt(balance, 10)
	}
}

// FormatTokens renders a token quantity in messages and history, rounding
// thousands to the nearest.
func FormatTokens(tokens int64) string {
	switch {
	case tokens >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(tokens)/1_000_000)
	case tokens >= 1_000:
		return strconv.FormatInt(int64(math.Round(float64(tokens)/1_000)), 10) + "k"
	default:
		return strconv.FormatInt(tokens, 10)
	}
}

// =============================================================================
// TRANSACTION ROWS
// =============================================================================

// Row is one formatted history line.
type Row struct {
	Label    string
	Details  string
	Amount   string
	Positive bool
}

// DateLayout is the dd/mm/yyyy hh:mm layout used in history rows.
const DateLayout = "02/01/2006 15:04"

// Rows formats transactions for the history view, keeping their order.
func Rows(txs []model.Transaction) []Row {
	rows := make([]Row, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, FormatRow(tx, time.Local))
	}
	return rows
}

// FormatRow formats one transaction with dates in loc.
func FormatRow(tx model.Transaction, loc *time.Location) Row {
	date := ""
	if !tx.Timestamp.IsZero() {
		date = tx.Timestamp.In(loc).Format(DateLayout)
	}

	amount := tx.Amount
	if amount < 0 {
		amount = -amount
	}

	row := Row{Positive: tx.IsCredit()}
	if row.Positive {
		row.Amount = "+" + FormatTokens(amount)
	} else {
		row.Amount = "-" + FormatTokens(amount)
	}

	if tx.Type == model.TransactionPurchase {
		row.Label = "💰 Recarga"
		row.Details = date
	} else {
		row.Label = "💬 Uso"
		name := tx.Model
		if name == "" {
			name = "Sofia"
		}
		row.Details = name
		if date != "" {
			row.Details += " • " + date
		}
	}
	return row
}
