// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package identitycmd

import (
	"github.com/luxfi/dotcli/cmd/flags"
	"github.com/luxfi/dotcli/pkg/dapp"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

// dotcli identity show
func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the identity of an account",
		Args:  cobra.NoArgs,
		RunE:  runShow,
	}
	flags.AddNetworkFlagsToCmd(cmd, app, &networkFlags)
	flags.AddAccountFlagToCmd(cmd, &account)
	return cmd
}

func runShow(cmd *cobra.Command, _ []string) error {
	ctrl, err := flags.MountController(cmd.Context(), app, account)
	if err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Teardown(); err != nil {
			app.Log.Warn("teardown failed", "error", err)
		}
	}()

	v := ctrl.State()
	a, _ := v.Account()
	ux.Logger.PrintToUser("Account: %s (%s)", a.Address, v.IdentityChain)
	if v.Identity.Kind != dapp.IdentityPresent {
		ux.Logger.PrintToUser("No identity registered")
		return nil
	}
	id := v.Identity.Identity
	table := ux.NewTable(ux.Logger.Writer(), "Field", "Value")
	rows := [][]string{
		{"Display name", id.Display.String()},
		{"Email", id.Email.String()},
		{"Discord", id.Discord.String()},
	}
	for _, extra := range []struct {
		name  string
		field dapp.Field
	}{
		{"Legal name", id.Legal},
		{"Web", id.Web},
		{"Matrix", id.Matrix},
		{"Twitter", id.Twitter},
		{"GitHub", id.Github},
	} {
		if extra.field.Present {
			rows = append(rows, []string{extra.name, extra.field.String()})
		}
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
