// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keycmd

import (
	"errors"
	"strings"

	"github.com/luxfi/dotcli/pkg/key"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

var (
	useMnemonic    bool
	mnemonicPhrase string
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new keystore account",
		Long: `Create a new ed25519 account in the keystore.

A fresh 12-word mnemonic is generated unless one is given. The mnemonic is
shown once; write it down.

Examples:
  dotcli key create alice                      # Generate new mnemonic
  dotcli key create alice --mnemonic           # Prompt for existing mnemonic
  dotcli key create alice --phrase "word1 ..." # Use provided mnemonic`,
		Args: cobra.ExactArgs(1),
		RunE: runCreate,
	}

	cmd.Flags().BoolVarP(&useMnemonic, "mnemonic", "m", false, "Import from existing mnemonic (prompts for input)")
	cmd.Flags().StringVar(&mnemonicPhrase, "phrase", "", "Mnemonic phrase to import")

	return cmd
}

func captureMnemonic() (string, error) {
	mnemonic := strings.TrimSpace(mnemonicPhrase)
	if mnemonic == "" && useMnemonic {
		var err error
		if mnemonic, err = app.Prompt.CaptureString("Mnemonic"); err != nil {
			return "", err
		}
		mnemonic = strings.TrimSpace(mnemonic)
	}
	if mnemonic != "" && !key.ValidateMnemonic(mnemonic) {
		return "", key.ErrInvalidMnemonic
	}
	return mnemonic, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	ks, err := app.Keystore(cmd.Context())
	if err != nil {
		return err
	}

	mnemonic, err := captureMnemonic()
	if err != nil {
		return err
	}
	password, err := capturePassword(true)
	if err != nil {
		return err
	}

	kp, err := ks.CreateKey(cmd.Context(), name, key.CreateKeyOptions{Mnemonic: mnemonic, Password: password})
	if err != nil {
		if errors.Is(err, key.ErrKeyExists) {
			ux.Logger.PrintToUser("Use 'dotcli key delete %s' first to replace it.", name)
		}
		return err
	}
	defer kp.Zero()

	if mnemonic == "" {
		ux.Logger.PrintToUser("")
		ux.Logger.PrintToUser("Generated new mnemonic phrase (SAVE THIS SECURELY!):")
		ux.Logger.PrintToUser("")
		ux.Logger.PrintToUser("  %s", kp.Mnemonic)
		ux.Logger.PrintToUser("")
		ux.Logger.PrintToUser("WARNING: This is the ONLY time you will see this mnemonic!")
		ux.Logger.PrintToUser("")
	}
	ux.Logger.GreenCheckmarkToUser("Key '%s' created", name)
	ux.Logger.PrintToUser("Address: %s", kp.Address(addressPrefix()))
	return nil
}
