// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package configcmd

import (
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

var getShowSource bool

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get the effective value of a setting after merging the environment, the
config file and the built-in defaults.

Use --source to also show where the value came from (env, file, default).

Examples:
  dotcli config get network
  dotcli config get --source endpoints.westend`,
		Args: cobra.ExactArgs(1),
		RunE: runGet,
	}

	cmd.Flags().BoolVar(&getShowSource, "source", false, "Show the source of the value")

	return cmd
}

func runGet(_ *cobra.Command, args []string) error {
	s, err := lookup(args[0])
	if err != nil {
		return err
	}
	value, source := effective(s)
	if getShowSource {
		ux.Logger.PrintToUser("%s = %s (source: %s)", s.key, value, source)
		return nil
	}
	ux.Logger.PrintToUser("%s = %s", s.key, value)
	return nil
}
