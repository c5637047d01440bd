// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"context"
	"fmt"

	"github.com/luxfi/dotcli/pkg/substrate"
	"github.com/luxfi/dotcli/pkg/units"
	"github.com/luxfi/dotcli/pkg/wallet"
	luxlog "github.com/luxfi/log"
)

// TransferSubmitter sends Balances.transfer_keep_alive.
type TransferSubmitter struct {
	client ExtrinsicSubmitter
	log    luxlog.Logger
}

func NewTransferSubmitter(client ExtrinsicSubmitter, log luxlog.Logger) *TransferSubmitter {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &TransferSubmitter{client: client, log: log}
}

// Transfer sends amount, a decimal string in the chain's display unit,
// from one wallet account to the address to. Addresses and the amount are
// checked before any chain call.
func (t *TransferSubmitter) Transfer(
	ctx context.Context,
	signer wallet.Signer,
	from wallet.Account,
	to string,
	amount string,
) (*StatusStream, error) {
	dest, err := decodeAddress(to)
	if err != nil {
		return nil, err
	}
	src, err := decodeAddress(from.Address)
	if err != nil {
		return nil, err
	}
	chain := t.client.Chain()
	value, err := units.ParseAmount(amount, chain.Decimals)
	if err != nil {
		return nil, err
	}
	if value.IsZero() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", units.ErrInvalidAmount)
	}
	call, err := substrate.TransferKeepAliveCall(chain.TransferKeepAlive, dest, value)
	if err != nil {
		return nil, &SubmissionError{Op: "encode", Err: err}
	}
	t.log.Info("transfer",
		"chain", chain.Name,
		"from", from.Address,
		"to", to,
		"amount", units.FormatBalance(value, chain.Decimals),
	)
	return signAndWatch(ctx, t.client, t.log, signer, src, from.Address, call)
}
