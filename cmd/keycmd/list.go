// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keycmd

import (
	"time"

	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List keystore accounts",
		Long: `List every account in the keystore with its address on the configured
network. No password is needed.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	ks, err := app.Keystore(cmd.Context())
	if err != nil {
		return err
	}
	infos, err := ks.ListKeys(cmd.Context())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		ux.Logger.PrintToUser("No keys found. Create one with: dotcli key create <name>")
		return nil
	}

	prefix := addressPrefix()
	table := ux.NewTable(ux.Logger.Writer(), "Name", "Address", "Created")
	for _, info := range infos {
		addr, err := ss58.Reencode(info.Address, prefix)
		if err != nil {
			addr = info.Address
		}
		created := "-"
		if !info.CreatedAt.IsZero() {
			created = info.CreatedAt.Format(time.DateTime)
		}
		if err := table.Append(info.Name, addr, created); err != nil {
			return err
		}
	}
	return table.Render()
}
