// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package configcmd

import (
	"fmt"

	"github.com/luxfi/dotcli/pkg/application"
	"github.com/spf13/cobra"
)

var app *application.DotCLI

func NewCmd(injectedApp *application.DotCLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Modify configuration for dotcli",
		Long: `Read and change the settings stored in ~/.dotcli/cli.json.

Every setting can also be given as a DOTCLI_* environment variable, which
takes precedence over the file.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := cmd.Help()
			if err != nil {
				fmt.Println(err)
			}
		},
	}
	app = injectedApp
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newListCmd())
	return cmd
}
