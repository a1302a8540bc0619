// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring of the long-lived collaborators.

package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/billing"
	"github.com/jeranaias/sofia-tui/internal/config"
	"github.com/jeranaias/sofia-tui/internal/payment"
	"github.com/jeranaias/sofia-tui/internal/pricing"
	"github.com/jeranaias/sofia-tui/internal/registry"
	"github.com/jeranaias/sofia-tui/internal/session"
	"github.com/jeranaias/sofia-tui/internal/storage"
)

// App holds everything a command may need. Fields are built eagerly but
// none of them touches the network until used.
type App struct {
	Config   *config.Config
	Tokens   *api.TokenHolder
	Client   *api.Client
	Store    *storage.Store // nil when the cache could not be opened
	Registry *registry.Registry
	Balance  *billing.Tracker
	Payments *payment.Machine
	Prices   *pricing.Table
}

// NewApp builds the collaborators from cfg. The bearer token comes from
// the config when set there, otherwise from the token file.
func NewApp(cfg *config.Config) (*App, error) {
	token := cfg.API.Token
	if token == "" {
		path, err := cfg.TokenPath()
		if err != nil {
			return nil, err
		}
		if token, err = api.LoadTokenFile(path); err != nil {
			return nil, err
		}
	}

	tokens := api.NewTokenHolder(token)
	client := api.NewClient(cfg.API.BaseURL, tokens).
		WithTimeout(cfg.API.Timeout.Duration).
		WithMaxRetries(cfg.API.MaxRetries).
		WithRateLimit(cfg.API.RequestsPerSecond)

	app := &App{
		Config:   cfg,
		Tokens:   tokens,
		Client:   client,
		Registry: registry.New(client).WithRecentLimit(cfg.Chat.RecentLimit),
		Balance:  billing.NewTracker(client),
		Payments: payment.New(client, payment.Config{
			PollInterval: cfg.Payment.PollInterval.Duration,
			Timeout:      cfg.Payment.Timeout.Duration,
		}),
		Prices: new(pricing.Table),
	}

	// The cache is an optimisation; the client works without it.
	if path, err := cfg.CachePath(); err == nil {
		store, err := storage.Open(path)
		if err != nil {
			log.Printf("cache disabled: %v", err)
		} else {
			app.Store = store
			app.Registry.WithCache(store)
			app.Payments.WithLedger(store)
		}
	}

	app.Payments.OnCredited(func(s payment.Session) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := app.Balance.Refresh(ctx); err != nil {
			log.Printf("balance refresh after credit %s failed: %v", s.Reference, err)
		}
	})
	return app, nil
}

// RequireLogin fails fast when no usable token is configured.
func (a *App) RequireLogin() error {
	return a.Tokens.Check(time.Now())
}

// Controller returns a session controller drawing into view.
func (a *App) Controller(view session.View) *session.Controller {
	opts := session.Options{
		PlaceholderName: a.Config.Chat.PlaceholderName,
		TitleMaxRunes:   a.Config.Chat.TitleMaxRunes,
		DefaultModel:    a.Config.Chat.DefaultModel,
	}
	return session.NewController(a.Client, view, opts).
		WithRegistry(a.Registry).
		WithBalance(a.Balance)
}

// Close stops payment polling and closes the cache.
func (a *App) Close() error {
	a.Payments.Stop()
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// =============================================================================
// LOGGING
// =============================================================================

// setupLogging points the standard logger at the log file, or at stderr
// when verbose. It returns a function that closes the file.
func setupLogging(cfg *config.Config, verbose bool) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if verbose {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	path, err := cfg.LogPath()
	if err == nil {
		if err = os.MkdirAll(filepath.Dir(path), 0700); err == nil {
			var f *os.File
			f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
			if err == nil {
				log.SetOutput(f)
				return func() { f.Close() }
			}
		}
	}
	fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	log.SetOutput(io.Discard)
	return func() {}
}
