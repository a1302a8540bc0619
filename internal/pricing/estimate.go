// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pricing

import (
	"math"
	"strings"

	"github.com/jeranaias/sofia-tui/internal/util"
)

// ============================================================================
// COST ESTIMATE
// ============================================================================

const (
	// CharsPerToken is the rough characters-per-token ratio.
	CharsPerToken = 4

	// ExpectedOutputTokens approximates the size of a reply.
	ExpectedOutputTokens = 150
)

// EstimateInputTokens returns ceil(L/4) for a text of L characters.
func EstimateInputTokens(text string) int {
	n := util.RuneLen(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Estimate returns the displayed cost estimate for sending text to modelID.
// ok is false when the estimate must be hidden: blank text or no price entry.
func Estimate(text, modelID string, table *Table) (cost int64, ok bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}
	price, found := table.Lookup(modelID)
	if !found {
		return 0, false
	}
	return Cost(EstimateInputTokens(text), price), true
}

// Cost applies the estimate formula to a token count.
func Cost(inputTokens int, price Price) int64 {
	inputCost := (float64(inputTokens) / 1000) * price.Input
	outputCost := (float64(ExpectedOutputTokens) / 1000) * price.Output
	return int64(math.Ceil(inputCost + outputCost))
}
