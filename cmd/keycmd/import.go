// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keycmd

import (
	"strings"

	"github.com/luxfi/dotcli/pkg/key"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

var seedHex string

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <name>",
		Short: "Import an account from a mnemonic or raw seed",
		Long: `Import an existing account into the keystore.

Without flags the mnemonic is prompted for. --seed takes the 32-byte
ed25519 seed (the substrate mini secret) as hex instead.

Examples:
  dotcli key import alice
  dotcli key import alice --seed 0x...`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringVar(&seedHex, "seed", "", "hex-encoded 32-byte seed")
	cmd.Flags().StringVar(&mnemonicPhrase, "phrase", "", "Mnemonic phrase to import")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	name := args[0]
	ks, err := app.Keystore(cmd.Context())
	if err != nil {
		return err
	}

	var kp *key.KeyPair
	if seed := strings.TrimSpace(seedHex); seed != "" {
		password, err := capturePassword(true)
		if err != nil {
			return err
		}
		if kp, err = ks.ImportSeed(cmd.Context(), name, seed, password); err != nil {
			return err
		}
	} else {
		useMnemonic = true
		mnemonic, err := captureMnemonic()
		if err != nil {
			return err
		}
		password, err := capturePassword(true)
		if err != nil {
			return err
		}
		if kp, err = ks.CreateKey(cmd.Context(), name, key.CreateKeyOptions{Mnemonic: mnemonic, Password: password}); err != nil {
			return err
		}
	}
	defer kp.Zero()

	ux.Logger.GreenCheckmarkToUser("Key '%s' imported", name)
	ux.Logger.PrintToUser("Address: %s", kp.Address(addressPrefix()))
	return nil
}
