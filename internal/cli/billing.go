// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// billing.go - Balance, recharge and history commands.

package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/billing"
	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/payment"
	"github.com/jeranaias/sofia-tui/internal/pricing"
	"github.com/jeranaias/sofia-tui/internal/ui/components"
	"github.com/jeranaias/sofia-tui/internal/util"
)

// =============================================================================
// BALANCE
// =============================================================================

func newBalanceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the token balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			return output(cmd.OutOrStdout(), opts.jsonOutput, "balance",
				func() (BalanceData, error) {
					b, err := app.Balance.Refresh(cmd.Context())
					return BalanceData{Tokens: b, Display: billing.FormatBalance(b)}, err
				},
				func(w io.Writer, d BalanceData) {
					fmt.Fprintf(w, "Saldo: %s tokens\n", labelStyle.Render(d.Display))
				})
		},
	}
}

// =============================================================================
// PACKAGES
// =============================================================================

func newPackagesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: "List the recharge packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			btc := opts.cfg.Payment.BTCPriceUSD
			return output(cmd.OutOrStdout(), opts.jsonOutput, "packages",
				func() ([]PackageData, error) { return packageData(btc) },
				printPackages)
		},
	}
}

func packageData(btcPriceUSD float64) ([]PackageData, error) {
	data := make([]PackageData, 0, len(pricing.Packages))
	for _, p := range pricing.Packages {
		d := PackageData{ID: p.ID, Name: p.Name, USD: p.USD, Tokens: p.Tokens, Popular: p.Popular, Custom: p.Custom}
		if !p.Custom {
			sats, err := pricing.Sats(p.USD, btcPriceUSD)
			if err != nil {
				return nil, err
			}
			d.Sats = sats
		}
		data = append(data, d)
	}
	return data, nil
}

func printPackages(w io.Writer, data []PackageData) {
	for _, p := range data {
		if p.Custom {
			fmt.Fprintf(w, "  %-10s  $%.0f-$%.0f, %s tokens por dólar\n", p.ID, pricing.CustomMinUSD, pricing.CustomMaxUSD,
				billing.FormatTokens(int64(pricing.CustomTokensPerUSD)))
			continue
		}
		line := fmt.Sprintf("  %-10s  $%-4.0f %8s tokens  %s sats", p.ID, p.USD, billing.FormatTokens(p.Tokens), strconv.FormatInt(p.Sats, 10))
		if p.Popular {
			line += "  " + labelStyle.Render("★ popular")
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, mutedStyle.Render("Compre com: sofia buy <pacote> [valor]"))
}

// =============================================================================
// BUY
// =============================================================================

func newBuyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "buy <package> [usd]",
		Short: "Recharge tokens with a Lightning invoice",
		Long: `Create a Lightning invoice for a package and wait until it is paid.
The tokens are credited as soon as the payment settles. Ctrl+C cancels.

The starter package takes a dollar amount between 1 and 100.`,
		Example: "  sofia buy standard\n  sofia buy starter 5",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := pricing.FindPackage(args[0])
			if err != nil {
				return invalidArg("package", args[0], err.Error(), "sofia buy standard")
			}
			usd := 0.0
			if pkg.Custom {
				if len(args) < 2 {
					return invalidArg("usd", "", "the starter package needs an amount", "sofia buy starter 5")
				}
				if usd, err = strconv.ParseFloat(strings.TrimPrefix(args[1], "$"), 64); err != nil {
					return invalidArg("usd", args[1], "not a number", "sofia buy starter 5")
				}
			}
			q, err := pricing.NewQuote(pkg, usd, opts.cfg.Payment.BTCPriceUSD)
			if err != nil {
				return invalidArg("usd", fmt.Sprint(usd), err.Error(), "sofia buy starter 5")
			}

			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()
			return runBuy(cmd.Context(), app, cmd.OutOrStdout(), q)
		},
	}
}

// runBuy starts the purchase and prints every status change until the
// session reaches a terminal state or ctx is cancelled.
func runBuy(ctx context.Context, app *App, out io.Writer, q pricing.Quote) error {
	changes := make(chan payment.Session, 8)
	app.Payments.OnChange(func(s payment.Session) {
		select {
		case changes <- s:
		default:
			// A slow terminal only loses intermediate states.
		}
	})

	s, err := app.Payments.Purchase(ctx, q)
	if err != nil {
		return NewCommandError("buy", q.Package.ID, err)
	}

	fmt.Fprintf(out, "%s %s tokens por $%.2f (%s sats)\n\n", labelStyle.Render("⚡ Fatura Lightning"),
		billing.FormatTokens(s.Tokens), s.USD, strconv.FormatInt(s.Sats, 10))
	fmt.Fprintln(out, s.PaymentRequest)
	fmt.Fprintln(out)
	fmt.Fprintln(out, mutedStyle.Render("Aguardando pagamento... (Ctrl+C cancela)"))

	last := s.Status
	for {
		select {
		case <-ctx.Done():
			app.Payments.Cancel()
			return fmt.Errorf("pagamento cancelado: %w", ctx.Err())
		case s = <-changes:
		}
		// Status values only move forward; older ones are the echo of
		// Purchase itself.
		if s.Status < last || (s.Status == last && s.CreditErr == nil) {
			continue
		}
		last = s.Status
		fmt.Fprintln(out, components.StatusText(s))

		switch {
		case s.Status == payment.StatusCredited:
			if b, err := app.Balance.Refresh(ctx); err == nil {
				fmt.Fprintf(out, "Saldo: %s tokens\n", billing.FormatBalance(b))
			}
			return nil
		case s.Status == payment.StatusSettled && s.CreditErr != nil:
			// Paid but not credited; the ledger makes a later retry safe.
			if err := app.Payments.RetryCredit(ctx); err != nil {
				return NewCommandError("buy", "credit", err)
			}
		case s.Status.Terminal():
			return NewCommandError("buy", q.Package.ID, fmt.Errorf("payment %s", s.Status))
		}
	}
}

// =============================================================================
// HISTORY
// =============================================================================

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var (
		limit int
		local bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent recharges and usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if local {
				return runLocalHistory(cmd, opts)
			}
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			return output(cmd.OutOrStdout(), opts.jsonOutput, "history",
				func() ([]model.Transaction, error) { return app.Client.Transactions(cmd.Context(), limit) },
				func(w io.Writer, txs []model.Transaction) {
					if len(txs) == 0 {
						fmt.Fprintln(w, "Nenhuma transação.")
						return
					}
					for _, r := range billing.Rows(txs) {
						amount := errStyle.Render(r.Amount)
						if r.Positive {
							amount = okStyle.Render(r.Amount)
						}
						fmt.Fprintf(w, "%-12s %10s  %s\n", r.Label, amount, mutedStyle.Render(r.Details))
					}
				})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", api.DefaultTransactionLimit, "number of entries")
	cmd.Flags().BoolVar(&local, "local", false, "list payments credited from this machine (offline)")
	return cmd
}

// runLocalHistory prints the credited-payment ledger. It needs no login.
func runLocalHistory(cmd *cobra.Command, opts *rootOptions) error {
	app, err := NewApp(opts.cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	if app.Store == nil {
		return NewCommandError("history", "local", errNoCache)
	}

	return output(cmd.OutOrStdout(), opts.jsonOutput, "history",
		func() ([]CreditData, error) {
			credits, err := app.Store.Credits(cmd.Context())
			if err != nil {
				return nil, err
			}
			data := make([]CreditData, len(credits))
			for i, c := range credits {
				data[i] = CreditData{PaymentHash: c.PaymentHash, Tokens: c.Tokens, CreditedAt: c.CreditedAt}
			}
			return data, nil
		},
		func(w io.Writer, data []CreditData) {
			if len(data) == 0 {
				fmt.Fprintln(w, "Nenhum pagamento creditado nesta máquina.")
				return
			}
			for _, c := range data {
				fmt.Fprintf(w, "%s  %10s  %s\n",
					c.CreditedAt.Local().Format("02/01/2006 15:04"),
					okStyle.Render("+"+billing.FormatTokens(c.Tokens)),
					mutedStyle.Render(util.TruncateRunes(c.PaymentHash, 20)))
			}
		})
}

// =============================================================================
// MODELS
// =============================================================================

func newModelsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models and their prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			current := opts.cfg.Chat.DefaultModel
			return output(cmd.OutOrStdout(), opts.jsonOutput, "models",
				func() ([]model.ModelPrice, error) { return app.Client.Models(cmd.Context()) },
				func(w io.Writer, models []model.ModelPrice) {
					for _, m := range models {
						mark := " "
						if m.ID == current {
							mark = "●"
						}
						fmt.Fprintf(w, "%s %-20s entrada %.2f  saída %.2f  (tokens por 1k)\n",
							mark, m.ID, m.CostPer1KInput, m.CostPer1KOutput)
					}
				})
		},
	}
}
