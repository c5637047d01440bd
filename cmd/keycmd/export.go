// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keycmd

import (
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

var exportMnemonic bool

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Show the public key and address of an account",
		Long: `Show the public key and address of an account.

With --mnemonic the keystore is decrypted and the recovery phrase is
printed. Anyone holding it controls the account.

Examples:
  dotcli key export alice
  dotcli key export alice --mnemonic`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().BoolVar(&exportMnemonic, "mnemonic", false, "decrypt and print the recovery phrase")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	name := args[0]
	ks, err := app.Keystore(cmd.Context())
	if err != nil {
		return err
	}

	if !exportMnemonic {
		infos, err := ks.ListKeys(cmd.Context())
		if err != nil {
			return err
		}
		for _, info := range infos {
			if info.Name == name {
				ux.Logger.PrintToUser("Name:       %s", info.Name)
				ux.Logger.PrintToUser("Address:    %s", info.Address)
				ux.Logger.PrintToUser("Public key: %s", info.PublicKey.Hex())
				return nil
			}
		}
		return errKeyNotFound(name)
	}

	password, err := capturePassword(false)
	if err != nil {
		return err
	}
	kp, err := ks.LoadKey(cmd.Context(), name, password)
	if err != nil {
		return err
	}
	defer kp.Zero()

	ux.Logger.PrintToUser("Address:  %s", kp.Address(addressPrefix()))
	if kp.Mnemonic == "" {
		ux.Logger.PrintToUser("Key '%s' was imported from a raw seed and has no mnemonic.", name)
		return nil
	}
	ux.Logger.PrintToUser("Mnemonic: %s", kp.Mnemonic)
	return nil
}
