// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package transfercmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/dotcli/cmd/flags"
	"github.com/luxfi/dotcli/pkg/application"
	"github.com/luxfi/dotcli/pkg/dapp"
	"github.com/luxfi/dotcli/pkg/prompts"
	"github.com/luxfi/dotcli/pkg/units"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

var (
	app          *application.DotCLI
	networkFlags flags.NetworkFlags
	account      string
	to           string
	amount       string
	force        bool
)

var errNotFinalized = errors.New("transfer did not finalize")

// isTerminal reports whether the status bar can redraw in place.
var isTerminal = func() bool {
	return ux.IsTerminal(ux.Logger.Writer())
}

// dotcli transfer
func NewCmd(injectedApp *application.DotCLI) *cobra.Command {
	app = injectedApp

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Send tokens to another account",
		Long: `Send tokens from the selected account with transfer_keep_alive and follow
the transaction until it is finalized or fails.

The amount is in whole tokens and may have up to as many fractional digits
as the chain has decimals. Missing --to and --amount are prompted for.

Examples:
  dotcli transfer --to 5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty --amount 1.5
  dotcli transfer --account alice --to <address> --amount 0.01 --force`,
		Args: cobra.NoArgs,
		RunE: runTransfer,
	}
	flags.AddNetworkFlagsToCmd(cmd, app, &networkFlags)
	flags.AddAccountFlagToCmd(cmd, &account)
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in whole tokens, e.g. 1.5")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	return cmd
}

func captureMissing(decimals uint8) error {
	v := prompts.NewValidator("transfer").
		Require(&to, prompts.MissingOpt{Flag: "--to", Prompt: "Recipient address", Note: "SS58 address"}).
		Require(&amount, prompts.MissingOpt{Flag: "--amount", Prompt: "Amount", Note: "whole tokens, e.g. 1.5"})
	return v.Resolve(func(opt prompts.MissingOpt) (string, error) {
		if opt.Flag == "--to" {
			return app.Prompt.CaptureAddress(opt.Prompt)
		}
		a, err := app.Prompt.CaptureAmount(opt.Prompt, decimals)
		if err != nil {
			return "", err
		}
		return units.FormatBalance(a, decimals), nil
	})
}

func runTransfer(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, err := app.Chain(app.Conf.Network())
	if err != nil {
		return err
	}
	if err := captureMissing(c.Decimals); err != nil {
		return err
	}
	to, amount = strings.TrimSpace(to), strings.TrimSpace(amount)

	bar := ux.NewStatusBar(ux.Logger.Writer(), "transfer", isTerminal())
	ctrl, err := flags.MountController(ctx, app, account, dapp.WithRender(func(v dapp.ViewState) {
		if v.LastTx != nil {
			bar.Update(v.LastTx.Status)
		}
	}))
	if err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Teardown(); err != nil {
			app.Log.Warn("teardown failed", "error", err)
		}
	}()

	from, _ := ctrl.State().Account()
	if !force {
		ok, err := app.Prompt.CaptureYesNo(fmt.Sprintf("Send %s %s from %s to %s?", amount, c.Symbol, from.Address, to))
		if err != nil {
			return err
		}
		if !ok {
			ux.Logger.PrintToUser("Aborted")
			return nil
		}
	}

	final, err := ctrl.Transfer(ctx, to, amount)
	if err != nil {
		return err
	}
	return report(ctrl.State(), final)
}

func report(v dapp.ViewState, final dapp.TransactionStatus) error {
	switch final.Kind {
	case dapp.StatusFinalized:
		ux.Logger.GreenCheckmarkToUser("Transfer finalized in block %s", final.BlockHash)
		ux.Logger.PrintToUser("Balance: %s", v.BalanceText())
		return nil
	case dapp.StatusFailed:
		ux.Logger.RedXToUser("Transfer failed: %s", final.Reason.Error())
		return fmt.Errorf("%w: %s", errNotFinalized, final.Reason.Error())
	}
	return errNotFinalized
}
