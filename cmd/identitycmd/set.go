// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package identitycmd

import (
	"errors"
	"fmt"

	"github.com/luxfi/dotcli/cmd/flags"
	"github.com/luxfi/dotcli/pkg/dapp"
	"github.com/luxfi/dotcli/pkg/prompts"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

var (
	fields dapp.IdentityFields
	force  bool
)

var errNotFinalized = errors.New("identity update did not finalize")

var isTerminal = func() bool {
	return ux.IsTerminal(ux.Logger.Writer())
}

// dotcli identity set
func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the identity of an account",
		Long: `Submit identity.set_identity for the selected account with a display name
and optional email and Discord handle. Empty fields are stored as None.
Each field holds at most 32 bytes.

Examples:
  dotcli identity set --display Alice
  dotcli identity set --display Alice --email alice@example.com --discord alice#1`,
		Args: cobra.NoArgs,
		RunE: runSet,
	}
	flags.AddNetworkFlagsToCmd(cmd, app, &networkFlags)
	flags.AddAccountFlagToCmd(cmd, &account)
	cmd.Flags().StringVar(&fields.Display, "display", "", "display name")
	cmd.Flags().StringVar(&fields.Email, "email", "", "email address (optional)")
	cmd.Flags().StringVar(&fields.Discord, "discord", "", "Discord handle (optional)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	return cmd
}

func runSet(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	v := prompts.NewValidator("identity set").
		Require(&fields.Display, prompts.MissingOpt{Flag: "--display", Prompt: "Display name"})
	if err := v.Resolve(func(opt prompts.MissingOpt) (string, error) {
		return app.Prompt.CaptureValidatedString(opt.Prompt, prompts.ValidateDisplayName)
	}); err != nil {
		return err
	}
	// validate before touching the network
	if _, err := fields.Info(); err != nil {
		return err
	}

	bar := ux.NewStatusBar(ux.Logger.Writer(), "identity", isTerminal())
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

	if !force {
		a, _ := ctrl.State().Account()
		ok, err := app.Prompt.CaptureYesNo(fmt.Sprintf("Set identity %q for %s?", fields.Display, a.Address))
		if err != nil {
			return err
		}
		if !ok {
			ux.Logger.PrintToUser("Aborted")
			return nil
		}
	}

	final, err := ctrl.SetIdentity(ctx, fields)
	if err != nil {
		return err
	}
	switch final.Kind {
	case dapp.StatusFinalized:
		ux.Logger.GreenCheckmarkToUser("Identity set in block %s", final.BlockHash)
		return nil
	case dapp.StatusFailed:
		ux.Logger.RedXToUser("Identity update failed: %s", final.Reason.Error())
		return fmt.Errorf("%w: %s", errNotFinalized, final.Reason.Error())
	}
	return errNotFinalized
}
