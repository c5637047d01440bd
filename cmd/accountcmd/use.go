// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package accountcmd

import (
	"github.com/luxfi/dotcli/cmd/flags"
	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

// dotcli account use
func newUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <name|address>",
		Short: "Make an account the default",
		Long: `Store the address of a wallet account as the default for show, watch,
transfer and identity commands.`,
		Args: cobra.ExactArgs(1),
		RunE: runUse,
	}
	flags.AddNetworkFlagsToCmd(cmd, app, &networkFlags)
	return cmd
}

func runUse(cmd *cobra.Command, args []string) error {
	conn, err := connectWallet(cmd.Context())
	if err != nil {
		return err
	}
	i, err := flags.AccountIndex(conn.Accounts, args[0])
	if err != nil {
		return err
	}
	a := conn.Accounts[i]
	if err := app.Conf.SetConfigValue(config.AccountKey, a.Address); err != nil {
		return err
	}
	ux.Logger.GreenCheckmarkToUser("Default account is now %s (%s)", a.Name, a.Address)
	return nil
}
