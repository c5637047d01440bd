// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/dotcli/pkg/substrate"
	"github.com/luxfi/dotcli/pkg/wallet"
	luxlog "github.com/luxfi/log"
)

// IdentityFields are the user-editable identity fields. Empty Email and
// Discord clear the field.
type IdentityFields struct {
	Display string
	Email   string
	Discord string
}

// Info validates the fields and builds the on-chain record. Fields not
// covered by IdentityFields are left as None.
func (f IdentityFields) Info() (substrate.IdentityInfo, error) {
	var info substrate.IdentityInfo
	display := strings.TrimSpace(f.Display)
	if display == "" {
		return info, ErrEmptyDisplayName
	}
	for _, field := range []struct {
		name  string
		value string
		dst   *substrate.Data
	}{
		{"display", display, &info.Display},
		{"email", strings.TrimSpace(f.Email), &info.Email},
		{"discord", strings.TrimSpace(f.Discord), &info.Discord},
	} {
		d, err := substrate.NewData(field.value)
		if errors.Is(err, substrate.ErrDataTooLong) {
			return info, fmt.Errorf("%w: %s", ErrFieldTooLong, field.name)
		}
		if err != nil {
			return info, err
		}
		*field.dst = d
	}
	return info, nil
}

// IdentitySubmitter sends Identity.set_identity on the identity chain.
type IdentitySubmitter struct {
	client ExtrinsicSubmitter
	log    luxlog.Logger
}

func NewIdentitySubmitter(client ExtrinsicSubmitter, log luxlog.Logger) *IdentitySubmitter {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &IdentitySubmitter{client: client, log: log}
}

func (s *IdentitySubmitter) SetIdentity(
	ctx context.Context,
	signer wallet.Signer,
	from wallet.Account,
	fields IdentityFields,
) (*StatusStream, error) {
	info, err := fields.Info()
	if err != nil {
		return nil, err
	}
	src, err := decodeAddress(from.Address)
	if err != nil {
		return nil, err
	}
	chain := s.client.Chain()
	if !chain.HasIdentity {
		return nil, fmt.Errorf("%w: %s", ErrIdentityUnsupported, chain.Name)
	}
	call, err := substrate.SetIdentityCall(chain.SetIdentity, info)
	if err != nil {
		return nil, &SubmissionError{Op: "encode", Err: err}
	}
	s.log.Info("set identity", "chain", chain.Name, "account", from.Address)
	return signAndWatch(ctx, s.client, s.log, signer, src, from.Address, call)
}
