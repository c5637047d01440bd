// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package accountcmd

import (
	"github.com/luxfi/dotcli/cmd/flags"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var showQR bool

// dotcli account show
func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show balance and identity of an account",
		Long: `Connect to the network and show the selected account's free balance and
its on-chain identity.

Examples:
  dotcli account show
  dotcli account show --account bob --qr
  dotcli account show --network local`,
		Args: cobra.NoArgs,
		RunE: runShow,
	}
	flags.AddNetworkFlagsToCmd(cmd, app, &networkFlags)
	flags.AddAccountFlagToCmd(cmd, &account)
	cmd.Flags().BoolVar(&showQR, "qr", false, "print the address as a QR code")
	return cmd
}

func runShow(cmd *cobra.Command, _ []string) error {
	ctrl, err := flags.MountController(cmd.Context(), app, account)
	if err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Teardown(); err != nil {
			app.Log.Warn("teardown failed", "error", err)
		}
	}()

	v := ctrl.State()
	if err := ux.PrintView(ux.Logger.Writer(), v); err != nil {
		return err
	}
	if !showQR {
		return nil
	}
	a, ok := v.Account()
	if !ok {
		return nil
	}
	qr, err := qrcode.New(a.Address, qrcode.Medium)
	if err != nil {
		return err
	}
	ux.Logger.PrintToUser("%s", qr.ToSmallString(false))
	return nil
}
