// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"context"

	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/substrate"
	"github.com/luxfi/dotcli/pkg/wallet"
	luxlog "github.com/luxfi/log"
)

// ExtrinsicSubmitter is the write side of a chain client. *substrate.Client
// satisfies it.
type ExtrinsicSubmitter interface {
	Chain() models.Chain
	SigningContext(ctx context.Context, id ss58.AccountID) (substrate.SigningContext, error)
	SubmitAndWatch(ctx context.Context, ext substrate.Extrinsic) (<-chan substrate.ExtrinsicStatus, substrate.Unsubscribe, error)
	DispatchOutcome(ctx context.Context, ext substrate.Extrinsic, block substrate.Hash) error
}

// signAndWatch signs call for from and submits it. Failures before the
// node sees the extrinsic are returned as *SubmissionError; a rejected
// submission is a stream holding a single Failed status. ctx bounds the
// whole watch.
func signAndWatch(
	ctx context.Context,
	client ExtrinsicSubmitter,
	log luxlog.Logger,
	signer wallet.Signer,
	from ss58.AccountID,
	fromAddress string,
	call substrate.Call,
) (*StatusStream, error) {
	sc, err := client.SigningContext(ctx, from)
	if err != nil {
		return nil, &SubmissionError{Op: "signing context", Err: err}
	}
	payload, err := substrate.SigningPayload(call, sc)
	if err != nil {
		return nil, &SubmissionError{Op: "payload", Err: err}
	}
	sig, err := signer.SignPayload(ctx, fromAddress, payload)
	if err != nil {
		return nil, &SubmissionError{Op: "sign", Err: err}
	}
	ext, err := substrate.NewSignedExtrinsic(from, sig, call, sc)
	if err != nil {
		return nil, &SubmissionError{Op: "encode", Err: err}
	}

	hash := ext.Hash()
	statuses, unwatch, err := client.SubmitAndWatch(ctx, ext)
	if err != nil {
		log.Warn("extrinsic rejected", "hash", hash.Hex(), "call", call.Index().String(), "error", err)
		return newFailedStream(hash, failed(FailureSubmission, "rejected by node", err), log), nil
	}
	log.Info("extrinsic watching", "hash", hash.Hex(), "call", call.Index().String(), "nonce", sc.Nonce)

	s := newStatusStream(hash, unwatch, log)
	go s.run(ctx, statuses, func(ctx context.Context, block substrate.Hash) error {
		return client.DispatchOutcome(ctx, ext, block)
	})
	return s, nil
}
