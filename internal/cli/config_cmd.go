// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Inspect and initialise the configuration.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sofia-tui/internal/config"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd, opts)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration (token redacted)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return showConfig(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := opts.configFile()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the current settings to the config file",
			Long: `Write the effective settings to ~/.sofia/config.toml so they can be
edited. An existing file is left alone.`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := config.ConfigPathTOML()
				if err != nil {
					return err
				}
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				cfg := opts.cfg.Clone()
				cfg.API.Token = ""
				if err := config.SaveTOML(cfg, path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}

func showConfig(cmd *cobra.Command, opts *rootOptions) error {
	if opts.jsonOutput {
		cfg := opts.cfg.Clone()
		if cfg.API.Token != "" {
			cfg.API.Token = "[REDACTED]"
		}
		return NewJSONResponse("config", cfg).Write(cmd.OutOrStdout())
	}
	fmt.Fprintln(cmd.OutOrStdout(), opts.cfg.String())
	return nil
}
