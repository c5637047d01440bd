// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package substrate

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// StorageKey is a fully hashed storage key.
type StorageKey []byte

func (k StorageKey) Hex() string {
	return "0x" + hex.EncodeToString(k)
}

// NewStorageKey builds twox128(pallet) ++ twox128(item) ++ hashedKeys.
func NewStorageKey(pallet, item string, hashedKeys ...[]byte) StorageKey {
	key := make([]byte, 0, 32+len(hashedKeys)*48)
	key = append(key, Twox128([]byte(pallet))...)
	key = append(key, Twox128([]byte(item))...)
	for _, k := range hashedKeys {
		key = append(key, k...)
	}
	return key
}

// Twox128 is two xxhash64 rounds with seeds 0 and 1, little endian.
func Twox128(data []byte) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[:8], xxh64(data, 0))
	binary.LittleEndian.PutUint64(out[8:], xxh64(data, 1))
	return out
}

// Twox64Concat is xxhash64(seed 0) followed by the key itself.
func Twox64Concat(data []byte) []byte {
	out := make([]byte, 8, 8+len(data))
	binary.LittleEndian.PutUint64(out, xxh64(data, 0))
	return append(out, data...)
}

// Blake2_128Concat is blake2b-128 followed by the key itself.
func Blake2_128Concat(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	_, _ = h.Write(data)
	return append(h.Sum(nil), data...)
}

// Blake2_256 hashes extrinsics, headers and oversized signing payloads.
func Blake2_256(data []byte) Hash {
	return blake2b.Sum256(data)
}

func xxh64(data []byte, seed uint64) uint64 {
	d := xxhash.NewWithSeed(seed)
	_, _ = d.Write(data)
	return d.Sum64()
}
