// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"context"
	"errors"
	"testing"

	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/units"
	"github.com/stretchr/testify/require"
)

func TestFetchOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("free balance", func(t *testing.T) {
		assert := require.New(t)
		node := newFakeChain(t, models.Westend)
		node.setBalance(t, aliceAddr, 1_000_000_000_000)

		b, err := NewBalanceReader(node, nil).FetchOnce(ctx, aliceAddr)
		assert.NoError(err)
		assert.Equal("1", b.Display())
		assert.Equal("1 WND", b.String())
	})

	t.Run("unknown account is zero", func(t *testing.T) {
		node := newFakeChain(t, models.Westend)
		b, err := NewBalanceReader(node, nil).FetchOnce(ctx, bobAddr)
		require.NoError(t, err)
		require.True(t, b.Free.IsZero())
		require.Equal(t, "0", b.Display())
	})

	t.Run("invalid address makes no call", func(t *testing.T) {
		node := newFakeChain(t, models.Westend)
		_, err := NewBalanceReader(node, nil).FetchOnce(ctx, "5Grw-not-valid")
		require.ErrorIs(t, err, ErrInvalidAddress)
		require.Zero(t, node.Calls())
	})

	t.Run("transport failure", func(t *testing.T) {
		node := newFakeChain(t, models.Westend)
		boom := errors.New("socket closed")
		node.storageErr = boom
		_, err := NewBalanceReader(node, nil).FetchOnce(ctx, aliceAddr)
		var qerr *QueryError
		require.ErrorAs(t, err, &qerr)
		require.Equal(t, QueryTransport, qerr.Kind)
		require.ErrorIs(t, err, boom)
	})

	t.Run("undecodable value", func(t *testing.T) {
		node := newFakeChain(t, models.Westend)
		node.storage[accountKey(t, aliceAddr).Hex()] = []byte{1, 2, 3}
		_, err := NewBalanceReader(node, nil).FetchOnce(ctx, aliceAddr)
		var qerr *QueryError
		require.ErrorAs(t, err, &qerr)
		require.Equal(t, QueryTransport, qerr.Kind)
	})
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("updates in order", func(t *testing.T) {
		node := newFakeChain(t, models.Westend)
		var got []string
		unsub, err := NewBalanceReader(node, nil).Subscribe(ctx, aliceAddr, func(b units.Balance) {
			got = append(got, b.Display())
		})
		require.NoError(t, err)
		defer unsub()

		node.push(accountKey(t, aliceAddr), accountInfo(t, 1_500_000_000_000))
		node.push(accountKey(t, aliceAddr), nil)
		node.push(accountKey(t, aliceAddr), []byte{0xff})
		node.push(accountKey(t, aliceAddr), accountInfo(t, 2_000_000_000_000))
		require.Equal(t, []string{"1.5", "0", "2"}, got)
	})

	t.Run("immediate unsubscribe never calls back", func(t *testing.T) {
		node := newFakeChain(t, models.Westend)
		called := 0
		unsub, err := NewBalanceReader(node, nil).Subscribe(ctx, aliceAddr, func(units.Balance) {
			called++
		})
		require.NoError(t, err)
		unsub()

		node.push(accountKey(t, aliceAddr), accountInfo(t, 5))
		require.Zero(t, called)
	})

	t.Run("double unsubscribe is a no-op", func(t *testing.T) {
		node := newFakeChain(t, models.Westend)
		unsub, err := NewBalanceReader(node, nil).Subscribe(ctx, aliceAddr, func(units.Balance) {})
		require.NoError(t, err)
		unsub()
		require.NotPanics(t, func() { unsub() })
		require.Equal(t, 1, node.unsubs)
	})

	t.Run("invalid address", func(t *testing.T) {
		node := newFakeChain(t, models.Westend)
		_, err := NewBalanceReader(node, nil).Subscribe(ctx, "", func(units.Balance) {})
		require.ErrorIs(t, err, ErrInvalidAddress)
		require.Zero(t, node.Calls())
	})
}
