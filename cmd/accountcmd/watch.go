// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package accountcmd

import (
	"context"
	"errors"
	"time"

	"github.com/luxfi/dotcli/cmd/flags"
	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/dapp"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

// dotcli account watch
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the balance of an account",
		Long: `Subscribe to the selected account's balance and print every change until
interrupted with Ctrl-C.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{constants.LongRunningAnnotation: "true"},
		RunE:        runWatch,
	}
	flags.AddNetworkFlagsToCmd(cmd, app, &networkFlags)
	flags.AddAccountFlagToCmd(cmd, &account)
	return cmd
}

// balancePrinter prints a line whenever the displayed balance changes.
// Render hooks are serialized by the controller.
type balancePrinter struct {
	now  func() time.Time
	last string
}

func (p *balancePrinter) render(v dapp.ViewState) {
	if v.Phase != dapp.PhaseReady || v.Balance == nil {
		return
	}
	a, ok := v.Account()
	if !ok {
		return
	}
	text := a.Address + " " + v.BalanceText()
	if text == p.last {
		return
	}
	p.last = text
	ux.Logger.PrintToUser("%s  %s  %s", p.now().Format(time.TimeOnly), a.Address, v.BalanceText())
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p := &balancePrinter{now: time.Now}
	ctrl, err := flags.MountController(ctx, app, account, dapp.WithRender(p.render))
	if err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Teardown(); err != nil {
			app.Log.Warn("teardown failed", "error", err)
		}
	}()

	ux.Logger.PrintToUser("Watching balance on %s, press Ctrl-C to stop", ctrl.State().RelayChain)
	<-ctx.Done()
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}
