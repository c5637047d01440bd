// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dapp is the orchestration core: it reads balances and identities,
// submits transfers and identity updates, tracks their status and keeps an
// immutable view state for a renderer.
package dapp

import (
	"context"
	"strings"
	"sync"

	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/substrate"
	"github.com/luxfi/dotcli/pkg/units"
	luxlog "github.com/luxfi/log"
)

// Unsubscribe stops a subscription. It is idempotent.
type Unsubscribe func()

// StateReader is the read side of a chain client. *substrate.Client
// satisfies it.
type StateReader interface {
	Chain() models.Chain
	Storage(ctx context.Context, key substrate.StorageKey) ([]byte, error)
	SubscribeStorage(ctx context.Context, key substrate.StorageKey, fn func([]byte)) (substrate.Unsubscribe, error)
}

// BalanceReader reads free balances from System.Account.
type BalanceReader struct {
	client StateReader
	log    luxlog.Logger
}

func NewBalanceReader(client StateReader, log luxlog.Logger) *BalanceReader {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &BalanceReader{client: client, log: log}
}

// FetchOnce reads the current free balance. An account the chain has never
// seen has a zero balance.
func (r *BalanceReader) FetchOnce(ctx context.Context, address string) (units.Balance, error) {
	id, err := decodeAddress(address)
	if err != nil {
		return units.Balance{}, err
	}
	raw, err := r.client.Storage(ctx, substrate.SystemAccountKey(id))
	if err != nil {
		return units.Balance{}, queryError(QueryTransport, "balance", address, err)
	}
	return r.balance(address, raw)
}

// Subscribe calls onUpdate with every pushed balance, in chain order, on a
// single goroutine. Once the returned Unsubscribe returns, onUpdate is not
// called again. onUpdate must not call Unsubscribe itself.
func (r *BalanceReader) Subscribe(ctx context.Context, address string, onUpdate func(units.Balance)) (Unsubscribe, error) {
	id, err := decodeAddress(address)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		stopped bool
	)
	unsub, err := r.client.SubscribeStorage(ctx, substrate.SystemAccountKey(id), func(raw []byte) {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		b, err := r.balance(address, raw)
		if err != nil {
			r.log.Warn("skipping balance update", "address", address, "error", err)
			return
		}
		onUpdate(b)
	})
	if err != nil {
		return nil, queryError(QueryTransport, "balance subscription", address, err)
	}
	r.log.Debug("balance subscription started", "address", address)

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			if err := unsub(); err != nil {
				r.log.Debug("balance unsubscribe", "address", address, "error", err)
			}
		})
	}, nil
}

func (r *BalanceReader) balance(address string, raw []byte) (units.Balance, error) {
	chain := r.client.Chain()
	info := substrate.EmptyAccountInfo()
	if raw != nil {
		var err error
		if info, err = substrate.DecodeAccountInfo(raw); err != nil {
			return units.Balance{}, queryError(QueryTransport, "balance", address, err)
		}
	}
	return units.NewBalance(info.Data.Free, chain.Decimals, chain.Symbol), nil
}

func decodeAddress(address string) (ss58.AccountID, error) {
	id, _, err := ss58.Decode(strings.TrimSpace(address))
	if err != nil {
		return ss58.AccountID{}, invalidAddress(address)
	}
	return id, nil
}
