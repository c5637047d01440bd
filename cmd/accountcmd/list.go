// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package accountcmd

import (
	"context"

	"github.com/luxfi/dotcli/cmd/flags"
	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/luxfi/dotcli/pkg/wallet"
	"github.com/spf13/cobra"
)

// dotcli account list
func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List wallet accounts with their addresses",
		Long: `List the accounts the wallet exposes, encoded for the selected network.
The default account is marked with "*".`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
	flags.AddNetworkFlagsToCmd(cmd, app, &networkFlags)
	return cmd
}

// connectWallet runs the wallet connect flow without opening any chain
// session.
func connectWallet(ctx context.Context) (*wallet.Connection, error) {
	c, err := app.Chain(app.Conf.Network())
	if err != nil {
		return nil, err
	}
	connector, err := app.Connector(ctx, c.SS58Prefix)
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, constants.AppName)
}

func runList(cmd *cobra.Command, _ []string) error {
	conn, err := connectWallet(cmd.Context())
	if err != nil {
		return err
	}
	selected := 0
	if want := app.Conf.GetConfigStringValue(config.AccountKey); want != "" {
		if i, err := flags.AccountIndex(conn.Accounts, want); err == nil {
			selected = i
		}
	}
	ux.Logger.PrintToUser("Wallet: %s", conn.Provider)
	return ux.PrintAccounts(ux.Logger.Writer(), conn.Accounts, selected)
}
