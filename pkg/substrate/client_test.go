// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package substrate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/dotcli/internal/testutils"
	"github.com/luxfi/dotcli/pkg/chain"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/stretchr/testify/require"
)

const waitFor = 5 * time.Second

const parentHex = "0x2222222222222222222222222222222222222222222222222222222222222222"

func newTestClient(t *testing.T, node *testutils.FakeNode) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	s, err := chain.Open(ctx, node.URL())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	c, err := models.Westend.Chain()
	require.NoError(t, err)
	return NewClient(s, c, nil)
}

func headerJSON(number string) map[string]any {
	return map[string]any{
		"parentHash":     parentHex,
		"number":         number,
		"stateRoot":      blockHex,
		"extrinsicsRoot": blockHex,
		"digest":         map[string]any{"logs": []string{"0x0600"}},
	}
}

func TestClientStorage(t *testing.T) {
	node := testutils.NewFakeNode(t)
	raw, err := EncodeAccountInfo(EmptyAccountInfo())
	require.NoError(t, err)
	accountKey := SystemAccountKey(aliceID(t)).Hex()
	node.Handle("state_getStorage", func(params []json.RawMessage) (any, error) {
		var key string
		_ = json.Unmarshal(params[0], &key)
		if key == accountKey {
			return EncodeHex(raw), nil
		}
		return nil, nil
	})
	c := newTestClient(t, node)
	ctx := context.Background()

	got, err := c.Storage(ctx, SystemAccountKey(aliceID(t)))
	require.NoError(t, err)
	require.Equal(t, raw, got)

	missing, err := c.Storage(ctx, IdentityOfKey(aliceID(t)))
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestClientSubscribeStorage(t *testing.T) {
	node := testutils.NewFakeNode(t)
	key := SystemAccountKey(aliceID(t))
	node.HandleSubscription("state_subscribeStorage", "state_storage",
		func(string, []json.RawMessage) ([]any, error) {
			return []any{
				map[string]any{"block": blockHex, "changes": [][]any{{key.Hex(), "0x01"}}},
				map[string]any{"block": blockHex, "changes": [][]any{{"0xdead", "0x02"}}},
				map[string]any{"block": blockHex, "changes": [][]any{{key.Hex(), nil}}},
			}, nil
		})
	node.HandleResult("state_unsubscribeStorage", true)
	c := newTestClient(t, node)

	got := make(chan []byte, 4)
	unsub, err := c.SubscribeStorage(context.Background(), key, func(v []byte) { got <- v })
	require.NoError(t, err)

	for _, want := range [][]byte{{0x01}, nil} {
		select {
		case v := <-got:
			require.Equal(t, want, v)
		case <-time.After(waitFor):
			t.Fatal("storage change not delivered")
		}
	}
	require.NoError(t, unsub())
	require.NoError(t, unsub())
	require.Eventually(t, func() bool {
		return node.Calls("state_unsubscribeStorage") == 1
	}, waitFor, 10*time.Millisecond)
}

func TestClientSigningContext(t *testing.T) {
	node := testutils.NewFakeNode(t)
	node.HandleResult("state_getRuntimeVersion", map[string]any{
		"specName": "westend", "specVersion": 1_017_001, "transactionVersion": 27,
	})
	node.HandleResult("chain_getBlockHash", blockHex)
	node.HandleResult("system_accountNextIndex", 9)
	c := newTestClient(t, node)

	sc, err := c.SigningContext(context.Background(), aliceID(t))
	require.NoError(t, err)
	require.Equal(t, uint64(9), sc.Nonce)
	require.Equal(t, uint32(1_017_001), sc.SpecVersion)
	require.Equal(t, uint32(27), sc.TransactionVersion)
	require.Equal(t, blockHex, sc.GenesisHash.Hex())
	require.True(t, sc.MetadataHash)

	params := node.Params("system_accountNextIndex")
	require.Len(t, params, 1)
	require.JSONEq(t, `"`+aliceSS58+`"`, string(params[0][0]))
}

func TestClientSubmitAndWatch(t *testing.T) {
	node := testutils.NewFakeNode(t)
	node.HandleSubscription("author_submitAndWatchExtrinsic", "author_extrinsicUpdate",
		func(string, []json.RawMessage) ([]any, error) {
			return []any{
				"ready",
				"bogus",
				map[string]any{"inBlock": blockHex},
				map[string]any{"finalized": blockHex},
			}, nil
		})
	node.HandleResult("author_unwatchExtrinsic", true)
	c := newTestClient(t, node)

	call, err := TransferKeepAliveCall(models.CallIndex{4, 3}, aliceID(t), uint256.NewInt(1))
	require.NoError(t, err)
	ext, err := NewUnsignedExtrinsic(call)
	require.NoError(t, err)

	statuses, unwatch, err := c.SubmitAndWatch(context.Background(), ext)
	require.NoError(t, err)

	var kinds []ExtrinsicStatusKind
	for st := range statuses {
		kinds = append(kinds, st.Kind)
	}
	require.Equal(t, []ExtrinsicStatusKind{StatusReady, StatusInBlock, StatusFinalized}, kinds)
	require.NoError(t, unwatch())

	params := node.Params("author_submitAndWatchExtrinsic")
	require.JSONEq(t, `"`+ext.Hex()+`"`, string(params[0][0]))
}

func TestClientSubmitRejected(t *testing.T) {
	node := testutils.NewFakeNode(t)
	node.HandleSubscription("author_submitAndWatchExtrinsic", "author_extrinsicUpdate",
		func(string, []json.RawMessage) ([]any, error) {
			return nil, &testutils.RPCError{Code: 1010, Message: "Invalid Transaction"}
		})
	c := newTestClient(t, node)

	_, _, err := c.SubmitAndWatch(context.Background(), Extrinsic{0x04})
	var rpcErr *chain.RPCError
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, 1010, rpcErr.Code)
}

func TestClientDispatchOutcome(t *testing.T) {
	block, err := ParseHash(blockHex)
	require.NoError(t, err)

	run := func(t *testing.T, result string) error {
		node := testutils.NewFakeNode(t)
		node.HandleResult("chain_getHeader", headerJSON("0x10"))
		node.Handle("state_call", func(params []json.RawMessage) (any, error) {
			var method, at string
			_ = json.Unmarshal(params[0], &method)
			_ = json.Unmarshal(params[2], &at)
			if method != "BlockBuilder_apply_extrinsic" || at != parentHex {
				return nil, &testutils.RPCError{Code: -32602, Message: "unexpected state_call"}
			}
			return result, nil
		})
		return newTestClient(t, node).DispatchOutcome(context.Background(), Extrinsic{0x04}, block)
	}

	t.Run("success", func(t *testing.T) {
		require.NoError(t, run(t, "0x0000"))
	})
	t.Run("dispatch error", func(t *testing.T) {
		err := run(t, EncodeHex(append([]byte{0, 1}, EncodeDispatchError(&DispatchError{
			Name: "Module", Module: &ModuleError{Index: 4, Error: [4]byte{2}},
		})...)))
		var de *DispatchError
		require.ErrorAs(t, err, &de)
		require.Equal(t, byte(4), de.Module.Index)
	})
	t.Run("validity error", func(t *testing.T) {
		require.ErrorIs(t, run(t, "0x010001"), ErrOutcomeUnknown)
	})
}

func TestClientBlocks(t *testing.T) {
	node := testutils.NewFakeNode(t)
	ext, err := NewUnsignedExtrinsic(Call{3, 0, 0x0b, 0x00})
	require.NoError(t, err)
	node.HandleResult("chain_getBlock", map[string]any{
		"block": map[string]any{
			"header":     headerJSON("0x2a"),
			"extrinsics": []string{ext.Hex()},
		},
	})
	node.HandleSubscription("chain_subscribeFinalizedHeads", "chain_finalizedHead",
		func(string, []json.RawMessage) ([]any, error) {
			return []any{headerJSON("0x2a"), map[string]any{"number": "zz"}, headerJSON("0x2b")}, nil
		})
	node.HandleResult("chain_unsubscribeFinalizedHeads", true)
	c := newTestClient(t, node)
	ctx := context.Background()

	heads, unsub, err := c.SubscribeFinalizedHeads(ctx)
	require.NoError(t, err)
	defer func() { _ = unsub() }()

	var first *Header
	select {
	case first = <-heads:
	case <-time.After(waitFor):
		t.Fatal("finalized head not delivered")
	}
	require.Equal(t, uint64(42), first.Number)
	enc, err := first.Encode()
	require.NoError(t, err)
	require.Equal(t, Blake2_256(enc), first.Hash)
	require.Equal(t, [][]byte{{0x06, 0x00}}, first.Digest)

	select {
	case second := <-heads:
		require.Equal(t, uint64(43), second.Number)
	case <-time.After(waitFor):
		t.Fatal("malformed head should be skipped, not end the stream")
	}

	b, err := c.Block(ctx, first.Hash)
	require.NoError(t, err)
	require.Equal(t, first.Hash, b.Header.Hash)
	require.Len(t, b.Extrinsics, 1)
	require.Equal(t, ext, b.Extrinsics[0])
}
