// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package flags

import (
	"fmt"

	"github.com/luxfi/dotcli/pkg/application"
	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/prompts"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	networkFlag  = "network"
	endpointFlag = "endpoint"
)

// NetworkFlags selects the target network and optionally its node.
type NetworkFlags struct {
	Network  string
	Endpoint string
}

// AddNetworkFlagsToCmd registers --network and --endpoint and applies them
// to the app configuration before the command runs.
func AddNetworkFlagsToCmd(cmd *cobra.Command, app *application.DotCLI, nf *NetworkFlags) {
	cmd.Flags().AddFlagSet(NetworkFlagSet(nf))

	chainPreRunE(cmd, func(*cobra.Command, []string) error {
		return ApplyNetworkFlags(app, nf)
	})
}

// NetworkFlagSet returns the network flags bound to nf.
func NetworkFlagSet(nf *NetworkFlags) *pflag.FlagSet {
	set := pflag.NewFlagSet("network", pflag.ContinueOnError)
	set.StringVarP(&nf.Network, networkFlag, "n", "", "network to use (westend, westend-people, local)")
	set.StringVar(&nf.Endpoint, endpointFlag, "", "node endpoint (ws:// or wss://) overriding the network default")
	return set
}

// ApplyNetworkFlags validates the flags and records them as overrides of the
// configured network and endpoint.
func ApplyNetworkFlags(app *application.DotCLI, nf *NetworkFlags) error {
	if nf.Network != "" {
		n := models.NetworkFromString(nf.Network)
		if n == models.Undefined {
			return fmt.Errorf("unknown network %q", nf.Network)
		}
		app.Conf.Override(config.NetworkKey, n.String())
	}
	if nf.Endpoint != "" {
		if err := prompts.ValidateEndpoint(nf.Endpoint); err != nil {
			return err
		}
		app.Conf.Override(config.EndpointKey(app.Conf.Network()), nf.Endpoint)
	}
	return nil
}

func chainPreRunE(cmd *cobra.Command, next func(*cobra.Command, []string) error) {
	existingPreRunE := cmd.PreRunE
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if existingPreRunE != nil {
			if err := existingPreRunE(cmd, args); err != nil {
				return err
			}
		}
		return next(cmd, args)
	}
}
