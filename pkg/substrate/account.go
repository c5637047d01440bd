// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package substrate

import (
	"bytes"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/holiman/uint256"
	"github.com/luxfi/dotcli/pkg/ss58"
)

// AccountData is the balances part of System.Account.
type AccountData struct {
	Free     *uint256.Int
	Reserved *uint256.Int
	Frozen   *uint256.Int
	Flags    *uint256.Int
}

// AccountInfo is the value stored under System.Account.
type AccountInfo struct {
	Nonce       uint32
	Consumers   uint32
	Providers   uint32
	Sufficients uint32
	Data        AccountData
}

// EmptyAccountInfo is what the chain reports for an account it has never seen.
func EmptyAccountInfo() AccountInfo {
	return AccountInfo{Data: AccountData{
		Free:     new(uint256.Int),
		Reserved: new(uint256.Int),
		Frozen:   new(uint256.Int),
		Flags:    new(uint256.Int),
	}}
}

// SystemAccountKey is System.Account(blake2_128concat(id)).
func SystemAccountKey(id ss58.AccountID) StorageKey {
	return NewStorageKey("System", "Account", Blake2_128Concat(id[:]))
}

// DecodeAccountInfo decodes a SCALE encoded AccountInfo.
func DecodeAccountInfo(raw []byte) (AccountInfo, error) {
	var info AccountInfo
	d := scale.NewDecoder(bytes.NewReader(raw))
	for _, field := range []*uint32{&info.Nonce, &info.Consumers, &info.Providers, &info.Sufficients} {
		if err := d.Decode(field); err != nil {
			return info, wrapDecode("account info", err)
		}
	}
	for _, field := range []**uint256.Int{&info.Data.Free, &info.Data.Reserved, &info.Data.Frozen, &info.Data.Flags} {
		v, err := decodeU128(d)
		if err != nil {
			return info, wrapDecode("account data", err)
		}
		*field = v
	}
	return info, nil
}

// EncodeAccountInfo is the inverse of DecodeAccountInfo; nil amounts encode as zero.
func EncodeAccountInfo(info AccountInfo) ([]byte, error) {
	var buf bytes.Buffer
	e := scale.NewEncoder(&buf)
	for _, v := range []uint32{info.Nonce, info.Consumers, info.Providers, info.Sufficients} {
		if err := e.Encode(v); err != nil {
			return nil, err
		}
	}
	for _, v := range []*uint256.Int{info.Data.Free, info.Data.Reserved, info.Data.Frozen, info.Data.Flags} {
		if err := e.Write(u128LE(v)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func u128LE(v *uint256.Int) []byte {
	out := make([]byte, 16)
	if v == nil {
		return out
	}
	be := v.Bytes32()
	for i := 0; i < 16; i++ {
		out[i] = be[31-i]
	}
	return out
}
