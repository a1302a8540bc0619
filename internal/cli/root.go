// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// root.go - Root command, global flags and Execute.

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sofia-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds the global flags and the config they produce.
type rootOptions struct {
	configPath string
	apiURL     string
	model      string
	jsonOutput bool
	verbose    bool

	cfg      *config.Config
	closeLog func()
}

// NewRootCommand builds the sofia command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "sofia",
		Short: "Terminal client for the Sofia chat service",
		Long: `sofia opens a full-screen chat with the Sofia assistant.

Conversations, projects and token recharges are also reachable from plain
subcommands, for scripts and dumb terminals.`,
		Version:           fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildDate),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.load,
		PersistentPostRun: func(*cobra.Command, []string) { opts.close() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.sofia/config.toml)")
	flags.StringVar(&opts.apiURL, "api-url", "", "backend URL (overrides api.base_url)")
	flags.StringVarP(&opts.model, "model", "m", "", "model id (overrides chat.default_model)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "JSON output for listing commands")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr instead of the log file")

	root.AddCommand(
		newChatCommand(opts),
		newChatsCommand(opts),
		newShowCommand(opts),
		newExportCommand(opts),
		newProjectsCommand(opts),
		newBalanceCommand(opts),
		newPackagesCommand(opts),
		newBuyCommand(opts),
		newHistoryCommand(opts),
		newModelsCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

// load reads the config and applies the global flags on top of it.
func (o *rootOptions) load(*cobra.Command, []string) error {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if cfg == nil {
		return err
	}

	if o.apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(o.apiURL, "/")
	}
	if o.model != "" {
		cfg.Chat.DefaultModel = o.model
	}
	config.SetGlobal(cfg)
	o.cfg = cfg

	o.closeLog = setupLogging(cfg, o.verbose)
	if err != nil {
		// Load already fell back to defaults.
		log.Printf("config: %v", err)
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
	}
	return nil
}

func (o *rootOptions) close() {
	if o.closeLog != nil {
		o.closeLog()
		o.closeLog = nil
	}
}

// app builds the collaborators for a command that talks to the backend.
func (o *rootOptions) app() (*App, error) {
	app, err := NewApp(o.cfg)
	if err != nil {
		return nil, err
	}
	if err := app.RequireLogin(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// configFile returns the file the config was read from, or would be.
func (o *rootOptions) configFile() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	if path, err := config.ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return path, nil
		}
	}
	if path, err := config.ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return path, nil
		}
	}
	return config.ConfigPathTOML()
}

// =============================================================================
// EXECUTE
// =============================================================================

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	jsonMode, _ := root.PersistentFlags().GetBool("json")
	if jsonMode {
		DisplayError(os.Stdout, err, true)
	} else {
		DisplayError(os.Stderr, err, false)
	}
	if strings.HasPrefix(err.Error(), "unknown command") || strings.HasPrefix(err.Error(), "unknown flag") {
		return ExitUsageError
	}
	return ExitCode(err)
}
