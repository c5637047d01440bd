// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keycmd

import (
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the key backends available on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backends, err := app.KeyBackends(cmd.Context())
			if err != nil {
				return err
			}
			table := ux.NewTable(ux.Logger.Writer(), "Backend", "Type", "Password")
			for _, b := range backends {
				password := "no"
				if b.RequiresPassword() {
					password = "yes"
				}
				if err := table.Append(b.Name(), string(b.Type()), password); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
