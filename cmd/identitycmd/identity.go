// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package identitycmd

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

// dotcli identity
func NewCmd(injectedApp *application.DotCLI) *cobra.Command {
	app = injectedApp

	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Read and set on-chain identities",
		Long: `The identity command suite reads and updates the identity registered for
an account on the network's identity chain (Westend People for Westend).`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Println(err)
			}
		},
	}

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newSetCmd())

	return cmd
}
