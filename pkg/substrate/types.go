// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package substrate

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/holiman/uint256"
)

var ErrDecode = errors.New("scale decode failed")

// Hash is a 32-byte block or extrinsic hash.
type Hash [32]byte

func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash decodes a 0x-prefixed 32-byte hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := DecodeHex(s)
	if err != nil {
		return h, err
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("hash %q has %d bytes", s, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// DecodeHex decodes node hex strings, with or without the 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding hex: %w", err)
	}
	return b, nil
}

// EncodeHex renders bytes the way the node expects them.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// ParseHexNumber decodes the 0x-prefixed big-endian numbers used in headers.
func ParseHexNumber(s string) (uint64, error) {
	n, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok || !n.IsUint64() {
		return 0, fmt.Errorf("bad hex number %q", s)
	}
	return n.Uint64(), nil
}

func decodeU128(d *scale.Decoder) (*uint256.Int, error) {
	var le [16]byte
	if err := d.Read(le[:]); err != nil {
		return nil, err
	}
	var be [16]byte
	for i := range le {
		be[15-i] = le[i]
	}
	return new(uint256.Int).SetBytes(be[:]), nil
}

func encodeCompact(e *scale.Encoder, v *uint256.Int) error {
	return e.EncodeUintCompact(*v.ToBig())
}

func encodeCompactUint(e *scale.Encoder, v uint64) error {
	return e.EncodeUintCompact(*new(big.Int).SetUint64(v))
}

func decodeCompactInt(d *scale.Decoder) (int, error) {
	n, err := d.DecodeUintCompact()
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() || n.Int64() > 1<<24 {
		return 0, fmt.Errorf("%w: length %s out of range", ErrDecode, n.String())
	}
	return int(n.Int64()), nil
}

func skip(d *scale.Decoder, n int) error {
	if n == 0 {
		return nil
	}
	return d.Read(make([]byte, n))
}

// wrapDecode marks short reads as decode failures.
func wrapDecode(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s truncated", ErrDecode, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrDecode, what, err)
}
