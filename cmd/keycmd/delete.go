// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keycmd

import (
	"fmt"

	"github.com/luxfi/dotcli/pkg/key"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

var forceDelete bool

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a keystore account",
		Long: `Delete an account from the keystore. Without its mnemonic the account
cannot be recovered.`,
		Args: cobra.ExactArgs(1),
		RunE: runDelete,
	}

	cmd.Flags().BoolVarP(&forceDelete, "force", "f", false, "skip confirmation")

	return cmd
}

func errKeyNotFound(name string) error {
	return fmt.Errorf("%w: %s", key.ErrKeyNotFound, name)
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	ks, err := app.Keystore(cmd.Context())
	if err != nil {
		return err
	}

	if !forceDelete {
		yes, err := app.Prompt.CaptureYesNo(fmt.Sprintf("Delete key '%s'? This cannot be undone", name))
		if err != nil {
			return err
		}
		if !yes {
			ux.Logger.PrintToUser("Aborted")
			return nil
		}
	}

	if err := ks.DeleteKey(cmd.Context(), name); err != nil {
		return err
	}
	ux.Logger.GreenCheckmarkToUser("Key '%s' deleted", name)
	return nil
}
