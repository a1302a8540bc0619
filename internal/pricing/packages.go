// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ============================================================================
// RECHARGE PACKAGES
// ============================================================================

// DefaultBTCPriceUSD is used when no BTC price is configured.
const DefaultBTCPriceUSD = 94000.0

// Custom package bounds, in USD.
const (
	CustomMinUSD = 1.0
	CustomMaxUSD = 100.0

	// CustomTokensPerUSD is the starter rate: $8 per 1M tokens.
	CustomTokensPerUSD = 1_000_000.0 / 8
)

var (
	ErrUnknownPackage   = errors.New("unknown package")
	ErrAmountOutOfRange = fmt.Errorf("amount must be between $%.0f and $%.0f", CustomMinUSD, CustomMaxUSD)
	ErrInvalidBTCPrice  = errors.New("btc price must be positive")
)

// Package is a token recharge offer.
type Package struct {
	ID      string
	Name    string
	USD     float64
	Tokens  int64
	Popular bool
	Custom  bool
}

// Packages lists the offers in display order.
var Packages = []Package{
	{ID: "starter", Name: "Starter", Custom: true},
	{ID: "light", Name: "Light", USD: 10, Tokens: 1_250_000},
	{ID: "standard", Name: "Standard", USD: 20, Tokens: 2_500_000, Popular: true},
	{ID: "pro", Name: "Pro", USD: 50, Tokens: 6_250_000},
	{ID: "enterprise", Name: "Enterprise", USD: 100, Tokens: 12_500_000},
}

// FindPackage looks up a package by id, case-insensitively.
func FindPackage(id string) (Package, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range Packages {
		if p.ID == id {
			return p, nil
		}
	}
	return Package{}, fmt.Errorf("%w: %q", ErrUnknownPackage, id)
}

// Quote is a priced package ready to turn into a purchase request.
type Quote struct {
	Package Package
	USD     float64
	Tokens  int64
	Sats    int64
}

// NewQuote prices a package. usd is only read for the custom package.
func NewQuote(pkg Package, usd, btcPriceUSD float64) (Quote, error) {
	if pkg.Custom {
		if usd < CustomMinUSD || usd > CustomMaxUSD || math.IsNaN(usd) {
			return Quote{}, ErrAmountOutOfRange
		}
	} else {
		usd = pkg.USD
	}

	sats, err := Sats(usd, btcPriceUSD)
	if err != nil {
		return Quote{}, err
	}

	tokens := pkg.Tokens
	if pkg.Custom {
		tokens = int64(usd * CustomTokensPerUSD)
	}
	return Quote{Package: pkg, USD: usd, Tokens: tokens, Sats: sats}, nil
}

// Sats converts a dollar amount to satoshis, truncating.
func Sats(usd, btcPriceUSD float64) (int64, error) {
	if btcPriceUSD <= 0 {
		return 0, ErrInvalidBTCPrice
	}
	return int64(usd / btcPriceUSD * 1e8), nil
}
