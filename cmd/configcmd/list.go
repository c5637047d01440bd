// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package configcmd

import (
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all settings with their effective values",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			table := ux.NewTable(ux.Logger.Writer(), "Key", "Value", "Source")
			for _, s := range settings() {
				value, source := effective(s)
				if value == "" {
					value = "-"
				}
				if err := table.Append(s.key, value, source); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
