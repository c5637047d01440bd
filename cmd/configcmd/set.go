// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package configcmd

import (
	"fmt"
	"strings"

	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a value in ~/.dotcli/cli.json.

Keys:
  network                   Default network (westend, westend-people, local)
  wallet-provider           Preferred wallet provider (keystore, env)
  account                   Default account address
  kafka-broker              Broker for 'dotcli watch'
  kafka-topic               Topic for 'dotcli watch'
  endpoints.<network>       Node endpoint override (ws:// or wss://)

Examples:
  dotcli config set network local
  dotcli config set endpoints.westend wss://my-node.example:443`,
		Args: cobra.ExactArgs(2),
		RunE: runSet,
	}
}

func runSet(_ *cobra.Command, args []string) error {
	s, err := lookup(args[0])
	if err != nil {
		return err
	}
	value := strings.TrimSpace(args[1])
	if s.validate != nil {
		if err := s.validate(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", s.key, err)
		}
	}
	if err := app.Conf.SetConfigValue(s.key, value); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	ux.Logger.PrintToUser("Set %s = %s", s.key, value)
	if app.Conf.Source(s.key) == config.SourceEnv {
		ux.Logger.PrintToUser("Note: %s is set and overrides the file", config.EnvVar(s.key))
	}
	return nil
}
