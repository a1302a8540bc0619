// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pricing

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/jeranaias/sofia-tui/internal/model"
)

// ============================================================================
// PRICE TABLE
// ============================================================================

// Price is the cost of one model per 1K tokens.
type Price struct {
	Input  float64
	Output float64
}

// Source supplies the model price list.
type Source interface {
	Models(ctx context.Context) ([]model.ModelPrice, error)
}

// Table maps model id to price. Load fills it once; every later Load is a
// no-op, so readers never see the table change under them.
type Table struct {
	once   sync.Once
	mu     sync.RWMutex
	prices map[string]Price
	err    error
}

// NewTable returns a table pre-filled with prices. Used by tests and by
// callers that already hold a price list.
func NewTable(prices map[string]Price) *Table {
	t := &Table{prices: make(map[string]Price, len(prices))}
	for id, p := range prices {
		t.prices[id] = p
	}
	t.once.Do(func() {})
	return t
}

// Load fetches the price list from src the first time it is called.
// A failed load leaves the table empty, which hides every estimate.
func (t *Table) Load(ctx context.Context, src Source) error {
	t.once.Do(func() {
		models, err := src.Models(ctx)
		if err != nil {
			log.Printf("pricing: load model costs: %v", err)
			t.mu.Lock()
			t.err = err
			t.mu.Unlock()
			return
		}

		prices := make(map[string]Price, len(models))
		for _, m := range models {
			if m.ID == "" {
				continue
			}
			prices[m.ID] = Price{Input: m.CostPer1KInput, Output: m.CostPer1KOutput}
		}

		t.mu.Lock()
		t.prices = prices
		t.mu.Unlock()
	})

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Lookup returns the price for a model id.
func (t *Table) Lookup(modelID string) (Price, bool) {
	if t == nil {
		return Price{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.prices[modelID]
	return p, ok
}

// Models returns the known model ids, sorted.
func (t *Table) Models() []string {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.prices))
	for id := range t.prices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns how many models have a price.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.prices)
}
