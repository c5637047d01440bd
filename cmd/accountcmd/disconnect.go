// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package accountcmd

import (
	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/luxfi/dotcli/pkg/wallet"
	"github.com/spf13/cobra"
)

// dotcli account disconnect
func newDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Revoke dotcli's access to the keystore wallet",
		Long: `Forget the authorization granted to dotcli by the keystore wallet. The
next command that needs accounts asks again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := app.Wallets(cmd.Context(), ss58.GenericPrefix)
			if err != nil {
				return err
			}
			p, err := registry.Get(wallet.KeystoreProviderName)
			if err != nil {
				return err
			}
			ks, ok := p.(*wallet.KeystoreProvider)
			if !ok {
				return wallet.ErrProviderUnavailable
			}
			if err := ks.Revoke(constants.AppName); err != nil {
				return err
			}
			ux.Logger.GreenCheckmarkToUser("Access for %s revoked", constants.AppName)
			return nil
		},
	}
}
