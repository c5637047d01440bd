// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"context"

	"github.com/luxfi/dotcli/pkg/substrate"
	luxlog "github.com/luxfi/log"
)

// Field is an identity value that may be absent.
type Field struct {
	Value   string
	Present bool
}

func Some(v string) Field {
	return Field{Value: v, Present: true}
}

func (f Field) String() string {
	if !f.Present {
		return "-"
	}
	return f.Value
}

func fieldOf(d substrate.Data) Field {
	s, ok := d.Text()
	if !ok {
		return Field{}
	}
	return Some(s)
}

// Identity is the readable part of an on-chain identity.
type Identity struct {
	Display Field
	Email   Field
	Discord Field

	Legal   Field
	Web     Field
	Matrix  Field
	Twitter Field
	Github  Field

	Judgements []substrate.Judgement
}

func identityFrom(reg substrate.Registration) *Identity {
	info := reg.Info
	return &Identity{
		Display:    fieldOf(info.Display),
		Email:      fieldOf(info.Email),
		Discord:    fieldOf(info.Discord),
		Legal:      fieldOf(info.Legal),
		Web:        fieldOf(info.Web),
		Matrix:     fieldOf(info.Matrix),
		Twitter:    fieldOf(info.Twitter),
		Github:     fieldOf(info.Github),
		Judgements: reg.Judgements,
	}
}

// IdentityReader reads Identity.IdentityOf on the identity chain.
type IdentityReader struct {
	client StateReader
	log    luxlog.Logger
}

func NewIdentityReader(client StateReader, log luxlog.Logger) *IdentityReader {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &IdentityReader{client: client, log: log}
}

// FetchIdentity returns nil and no error when the account has no identity.
// A field that is hashed or not valid UTF-8 is absent; the rest still reads.
func (r *IdentityReader) FetchIdentity(ctx context.Context, address string) (*Identity, error) {
	id, err := decodeAddress(address)
	if err != nil {
		return nil, err
	}
	if !r.client.Chain().HasIdentity {
		return nil, queryError(QueryNotFound, "identity", address, ErrIdentityUnsupported)
	}
	raw, err := r.client.Storage(ctx, substrate.IdentityOfKey(id))
	if err != nil {
		return nil, queryError(QueryTransport, "identity", address, err)
	}
	if raw == nil {
		r.log.Debug("no identity registered", "address", address)
		return nil, nil
	}
	reg, err := substrate.DecodeRegistration(raw)
	if err != nil {
		return nil, queryError(QueryTransport, "identity", address, err)
	}
	return identityFrom(reg), nil
}
