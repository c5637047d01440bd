// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package flags

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/dotcli/pkg/application"
	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/dapp"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/wallet"
	"github.com/spf13/cobra"
)

const accountFlag = "account"

var ErrAccountNotFound = errors.New("account not found in wallet")

func AddAccountFlagToCmd(cmd *cobra.Command, account *string) {
	cmd.Flags().StringVarP(account, accountFlag, "a", "", "account to use, by name or address (default: configured account, else the first)")
}

// AccountIndex finds want among accounts by name or by address on any
// network prefix.
func AccountIndex(accounts []wallet.Account, want string) (int, error) {
	want = strings.TrimSpace(want)
	id, _, addrErr := ss58.Decode(want)
	for i, a := range accounts {
		if a.Name == want || a.Address == want {
			return i, nil
		}
		if addrErr != nil {
			continue
		}
		if other, _, err := ss58.Decode(a.Address); err == nil && other == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrAccountNotFound, want)
}

// SelectAccount switches a mounted controller to the requested account, or
// to the configured default. Without either the first account stays
// selected.
func SelectAccount(ctx context.Context, app *application.DotCLI, ctrl *dapp.Controller, want string) error {
	if want == "" {
		want = app.Conf.GetConfigStringValue(config.AccountKey)
	}
	if want == "" {
		return nil
	}
	index, err := AccountIndex(ctrl.State().Accounts, want)
	if err != nil {
		return err
	}
	if index == ctrl.State().Selected {
		return nil
	}
	return ctrl.SelectAccount(ctx, index)
}

// MountController builds a controller for the configured network, mounts it
// and selects the requested account. The caller owns Teardown.
func MountController(ctx context.Context, app *application.DotCLI, account string, opts ...dapp.ControllerOption) (*dapp.Controller, error) {
	ctrl, err := app.NewController(ctx, app.Conf.Network(), opts...)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Mount(ctx); err != nil {
		_ = ctrl.Teardown()
		return nil, err
	}
	if err := SelectAccount(ctx, app, ctrl, account); err != nil {
		_ = ctrl.Teardown()
		return nil, err
	}
	return ctrl, nil
}
