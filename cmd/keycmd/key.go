// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package keycmd

import (
	"fmt"

	"github.com/luxfi/dotcli/pkg/application"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/spf13/cobra"
)

var app *application.DotCLI

func NewCmd(injectedApp *application.DotCLI) *cobra.Command {
	app = injectedApp

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Create and manage keystore accounts",
		Long: `The key command suite manages the encrypted keystore behind the
"keystore" wallet provider. Every key is an ed25519 account derived from a
12-word mnemonic and stored under ~/.dotcli/keys/<name>/, encrypted with a
password (AES-256-GCM, Argon2id).

The password is read from DOTCLI_KEY_PASSWORD when set, otherwise prompted.

To get started, use the key create command.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Println(err)
			}
		},
	}

	// dotcli key create
	cmd.AddCommand(newCreateCmd())

	// dotcli key import
	cmd.AddCommand(newImportCmd())

	// dotcli key list
	cmd.AddCommand(newListCmd())

	// dotcli key export
	cmd.AddCommand(newExportCmd())

	// dotcli key delete
	cmd.AddCommand(newDeleteCmd())

	// dotcli key backends
	cmd.AddCommand(newBackendsCmd())

	return cmd
}

// addressPrefix is the SS58 prefix of the configured network.
func addressPrefix() uint16 {
	c, err := app.Chain(app.Conf.Network())
	if err != nil {
		return ss58.GenericPrefix
	}
	return c.SS58Prefix
}
