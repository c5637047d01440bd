// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fakechain scripts a testutils.FakeNode to behave like a chain
// holding one funded account that accepts every extrinsic.
package fakechain

import (
	"encoding/json"

	"github.com/holiman/uint256"
	"github.com/luxfi/dotcli/internal/testutils"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/substrate"
)

const (
	BlockHex   = "0x1111111111111111111111111111111111111111111111111111111111111111"
	GenesisHex = "0xe143f23803ac50e8f6f8e62695d1ce9e4e1d68aa36c1cd2cfd15340213f3423e"
)

// Serve makes node answer storage reads for id with a free balance,
// report no identities, and take every submitted extrinsic through ready,
// in block and finalized.
func Serve(node *testutils.FakeNode, id ss58.AccountID, free uint64) error {
	info := substrate.EmptyAccountInfo()
	info.Data.Free = uint256.NewInt(free)
	raw, err := substrate.EncodeAccountInfo(info)
	if err != nil {
		return err
	}
	accountKey := substrate.SystemAccountKey(id).Hex()

	node.Handle("state_getStorage", func(params []json.RawMessage) (any, error) {
		var k string
		_ = json.Unmarshal(params[0], &k)
		if k == accountKey {
			return substrate.EncodeHex(raw), nil
		}
		return nil, nil
	})
	node.HandleSubscription("state_subscribeStorage", "state_storage", func(string, []json.RawMessage) ([]any, error) {
		return []any{map[string]any{
			"block":   BlockHex,
			"changes": [][]any{{accountKey, substrate.EncodeHex(raw)}},
		}}, nil
	})
	node.HandleResult("state_unsubscribeStorage", true)
	node.HandleResult("state_getRuntimeVersion", map[string]any{
		"specName":           "westend",
		"specVersion":        1_017_001,
		"transactionVersion": 27,
	})
	node.HandleResult("chain_getBlockHash", GenesisHex)
	node.HandleResult("system_accountNextIndex", 0)
	node.HandleResult("chain_getHeader", map[string]any{
		"parentHash":     GenesisHex,
		"number":         "0x2a",
		"stateRoot":      BlockHex,
		"extrinsicsRoot": BlockHex,
		"digest":         map[string]any{"logs": []string{}},
	})
	// an ok dispatch outcome
	node.HandleResult("state_call", "0x0000")
	node.HandleResult("author_unwatchExtrinsic", true)
	node.HandleSubscription("author_submitAndWatchExtrinsic", "author_extrinsicUpdate", func(string, []json.RawMessage) ([]any, error) {
		return []any{
			"ready",
			map[string]any{"inBlock": BlockHex},
			map[string]any{"finalized": BlockHex},
		}, nil
	})
	return nil
}
