// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth.go - login and logout.

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/billing"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var (
		token    string
		noVerify bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the bearer token used to reach the backend",
		Long: `Store the bearer token in ~/.sofia/token (owner-only). Paste the token
when prompted, or pipe it on stdin. The token is checked against the
backend before it is saved unless --no-verify is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if token == "" {
				var err error
				token, err = ReadSecret(cmd.InOrStdin(), out, "Token: ")
				if err != nil {
					return err
				}
			}
			if token == "" {
				return invalidArg("token", "", "empty", "sofia login --token <jwt>")
			}

			holder := api.NewTokenHolder(token)
			if err := holder.Check(time.Now()); err != nil {
				return err
			}

			if !noVerify {
				client := api.NewClient(opts.cfg.API.BaseURL, holder).WithTimeout(opts.cfg.API.Timeout.Duration)
				balance, err := client.Balance(cmd.Context())
				if err != nil {
					return NewCommandError("login", "verify", err)
				}
				fmt.Fprintf(out, "Saldo: %s tokens\n", billing.FormatBalance(balance))
			}

			path, err := opts.cfg.TokenPath()
			if err != nil {
				return err
			}
			if err := api.SaveTokenFile(path, token); err != nil {
				return err
			}

			who := holder.Subject()
			if who == "" {
				who = "token salvo"
			}
			fmt.Fprintln(out, okStyle.Render("✓ "+who))
			if exp, ok := holder.ExpiresAt(); ok {
				fmt.Fprintln(out, mutedStyle.Render("expira em "+exp.Local().Format("02/01/2006 15:04")))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token value (prompted when omitted)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "save without contacting the backend")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := opts.cfg.TokenPath()
			if err != nil {
				return err
			}
			if err := api.RemoveTokenFile(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token removido.")
			return nil
		},
	}
}
