// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/substrate"
	"github.com/stretchr/testify/require"
)

func TestIdentityFieldsInfo(t *testing.T) {
	t.Run("empty email is None", func(t *testing.T) {
		assert := require.New(t)
		info, err := IdentityFields{Display: " Alice ", Email: "", Discord: "alice#1"}.Info()
		assert.NoError(err)
		assert.Equal(substrate.Data{Kind: substrate.DataRaw, Value: []byte("Alice")}, info.Display)
		assert.Equal(substrate.DataNone, info.Email.Kind)
		assert.Nil(info.Email.Value)
		assert.Equal(substrate.DataRaw, info.Discord.Kind)
		assert.Equal(substrate.DataNone, info.Web.Kind)
	})

	t.Run("blank display", func(t *testing.T) {
		_, err := IdentityFields{Display: "   "}.Info()
		require.ErrorIs(t, err, ErrEmptyDisplayName)
	})

	t.Run("field longer than 32 bytes", func(t *testing.T) {
		_, err := IdentityFields{Display: "Alice", Email: strings.Repeat("a", 33)}.Info()
		require.ErrorIs(t, err, ErrFieldTooLong)
		require.ErrorContains(t, err, "email")

		_, err = IdentityFields{Display: strings.Repeat("é", 17)}.Info()
		require.ErrorIs(t, err, ErrFieldTooLong)
	})
}

func TestSetIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("encodes empty email as None", func(t *testing.T) {
		assert := require.New(t)
		node := newFakeChain(t, models.WestendPeople)
		signer := newKeySigner(t)

		stream, err := NewIdentitySubmitter(node, nil).SetIdentity(ctx, signer, signer.account(), IdentityFields{Display: "Alice"})
		assert.NoError(err)
		defer stream.Close()

		submitted := node.Submitted()
		assert.Len(submitted, 1)
		// set_identity(50.1): display Raw(5) "Alice", legal, web, matrix, email None, ...
		call := append([]byte{50, 1, 6}, []byte("Alice")...)
		call = append(call, 0x00, 0x00, 0x00, 0x00)
		assert.True(bytes.Contains(submitted[0], call))

		node.statuses <- substrate.ExtrinsicStatus{Kind: substrate.StatusFinalized, Block: blockHash(9)}
		final, err := stream.Wait(ctx)
		assert.NoError(err)
		assert.Equal(StatusFinalized, final.Kind)
	})

	t.Run("validation happens before any call", func(t *testing.T) {
		node := newFakeChain(t, models.WestendPeople)
		signer := newKeySigner(t)
		_, err := NewIdentitySubmitter(node, nil).SetIdentity(ctx, signer, signer.account(), IdentityFields{Display: ""})
		require.ErrorIs(t, err, ErrEmptyDisplayName)
		require.Zero(t, node.Calls())
		require.Zero(t, signer.Calls())
	})

	t.Run("relay chain has no identity pallet", func(t *testing.T) {
		node := newFakeChain(t, models.Westend)
		signer := newKeySigner(t)
		_, err := NewIdentitySubmitter(node, nil).SetIdentity(ctx, signer, signer.account(), IdentityFields{Display: "Alice"})
		require.ErrorIs(t, err, ErrIdentityUnsupported)
		require.Zero(t, node.Calls())
	})
}
