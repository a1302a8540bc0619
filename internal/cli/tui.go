// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - The full-screen chat, run when sofia has no subcommand.

package cli

import (
	"context"
	"errors"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sofia-tui/internal/config"
	"github.com/jeranaias/sofia-tui/internal/session"
	"github.com/jeranaias/sofia-tui/internal/ui/chat"
	"github.com/jeranaias/sofia-tui/internal/ui/styles"
)

func runTUI(ctx context.Context, opts *rootOptions) error {
	if !IsTTY() || !IsStdoutTTY() {
		return &TTYRequiredError{Operation: "open the chat screen (try `sofia chat`)"}
	}

	app, err := opts.app()
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := opts.cfg
	theme := styles.NewTheme()
	exportDir, _ := cfg.ExportDir()

	bridge := chat.NewBridge()
	defer bridge.Close()

	ctrl := app.Controller(bridge)
	deps := chat.Deps{
		Controller: ctrl,
		Registry:   app.Registry,
		Balance:    app.Balance,
		Payments:   app.Payments,
		Prices:     app.Prices,
		Backend:    app.Client,
		Theme:      theme,
		Options: chat.Options{
			GlamourStyle:     glamourStyle(cfg, theme),
			ShowCostEstimate: cfg.UI.ShowCostEstimate,
			SidebarWidth:     cfg.UI.SidebarWidth,
			BTCPriceUSD:      cfg.Payment.BTCPriceUSD,
			ExportDir:        exportDir,
		},
	}
	unsubscribe := chat.Subscribe(deps, bridge)
	defer unsubscribe()

	// Show the cached listing while the first refresh is in flight.
	if app.Registry.WarmStart(ctx) {
		log.Printf("registry warm start from cache")
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go watchConfig(watchCtx, opts, ctrl, bridge)

	log.Printf("starting TUI (api %s, model %s)", cfg.API.BaseURL, cfg.Chat.DefaultModel)
	p := tea.NewProgram(chat.New(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// watchConfig applies config edits made while the TUI runs. Only settings
// that can change safely mid-session are applied; the rest wait for the
// next start.
func watchConfig(ctx context.Context, opts *rootOptions, ctrl *session.Controller, bridge *chat.Bridge) {
	path, err := opts.configFile()
	if err != nil {
		return
	}

	prevModel := opts.cfg.Chat.DefaultModel
	err = config.Watch(ctx, path, config.DefaultWatchDebounce, func(cfg *config.Config, err error) {
		if err != nil {
			log.Printf("config reload failed: %v", err)
			bridge.Post(chat.NoticeMsg{Text: "Configuração inválida, mantendo a anterior."})
			return
		}
		config.SetGlobal(cfg)
		if cfg.Chat.DefaultModel != prevModel {
			prevModel = cfg.Chat.DefaultModel
			ctrl.SetModel(prevModel)
		}
		log.Printf("config reloaded from %s", path)
		bridge.Post(chat.NoticeMsg{Text: "Configuração recarregada."})
	})
	if err != nil {
		log.Printf("config watch: %v", err)
	}
}

// glamourStyle resolves "auto" against the detected background.
func glamourStyle(cfg *config.Config, theme *styles.Theme) string {
	if cfg.UI.GlamourStyle == "" || cfg.UI.GlamourStyle == "auto" {
		return theme.GlamourStyle()
	}
	return cfg.UI.GlamourStyle
}
