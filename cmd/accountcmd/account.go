// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package accountcmd

import (
	"fmt"

	"github.com/luxfi/dotcli/cmd/flags"
	"github.com/luxfi/dotcli/pkg/application"
	"github.com/spf13/cobra"
)

var (
	app          *application.DotCLI
	networkFlags flags.NetworkFlags
	account      string
)

// dotcli account
func NewCmd(injectedApp *application.DotCLI) *cobra.Command {
	app = injectedApp

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect the accounts of the connected wallet",
		Long: `The account command suite connects to the configured wallet provider
and shows its accounts, their balances and on-chain identities.

The first connection asks you to allow dotcli to access the wallet.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Println(err)
			}
		},
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newUseCmd())
	cmd.AddCommand(newDisconnectCmd())

	return cmd
}
