// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ss58 encodes and decodes Substrate SS58 account addresses.
package ss58

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// AccountIDLen is the length of an ed25519 / sr25519 public key.
	AccountIDLen = 32

	// GenericPrefix is the "substrate" network prefix, also used by Westend.
	GenericPrefix uint16 = 42

	checksumLen = 2
	maxPrefix   = 16383
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidPrefix  = errors.New("invalid ss58 prefix")

	checksumPreimage = []byte("SS58PRE")
)

// AccountID is the raw 32-byte public key behind an address.
type AccountID [AccountIDLen]byte

func (a AccountID) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Encode renders an account id under the given network prefix.
func Encode(id AccountID, prefix uint16) (string, error) {
	pfx, err := prefixBytes(prefix)
	if err != nil {
		return "", err
	}
	payload := append(pfx, id[:]...)
	sum := checksum(payload)
	return base58.Encode(append(payload, sum[:checksumLen]...)), nil
}

// MustEncode is Encode for prefixes known to be valid.
func MustEncode(id AccountID, prefix uint16) string {
	s, err := Encode(id, prefix)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode parses an SS58 address, or a 0x-prefixed hex public key, and
// returns the account id together with the network prefix (0 for hex).
func Decode(address string) (AccountID, uint16, error) {
	var id AccountID
	address = strings.TrimSpace(address)
	if address == "" {
		return id, 0, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	if strings.HasPrefix(address, "0x") {
		raw, err := hex.DecodeString(address[2:])
		if err != nil || len(raw) != AccountIDLen {
			return id, 0, fmt.Errorf("%w: %q is not a 32-byte hex key", ErrInvalidAddress, address)
		}
		copy(id[:], raw)
		return id, 0, nil
	}

	data := base58.Decode(address)
	if len(data) < 2 {
		return id, 0, fmt.Errorf("%w: %q is not base58", ErrInvalidAddress, address)
	}

	var (
		prefix    uint16
		prefixLen int
	)
	switch {
	case data[0] < 64:
		prefix, prefixLen = uint16(data[0]), 1
	case data[0] < 128:
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0b0011_1111
		prefix, prefixLen = uint16(lower)|uint16(upper)<<8, 2
	default:
		return id, 0, fmt.Errorf("%w: %q", ErrInvalidPrefix, address)
	}

	if len(data) != prefixLen+AccountIDLen+checksumLen {
		return id, 0, fmt.Errorf("%w: %q has unexpected length %d", ErrInvalidAddress, address, len(data))
	}
	body := data[:prefixLen+AccountIDLen]
	sum := checksum(body)
	if !bytes.Equal(sum[:checksumLen], data[prefixLen+AccountIDLen:]) {
		return id, 0, fmt.Errorf("%w: %q has a bad checksum", ErrInvalidAddress, address)
	}
	copy(id[:], body[prefixLen:])
	return id, prefix, nil
}

// Validate reports whether address decodes to an account id.
func Validate(address string) error {
	_, _, err := Decode(address)
	return err
}

// IsValid is the boolean form of Validate.
func IsValid(address string) bool {
	return Validate(address) == nil
}

// Reencode converts any accepted address form into the SS58 form for prefix.
func Reencode(address string, prefix uint16) (string, error) {
	id, _, err := Decode(address)
	if err != nil {
		return "", err
	}
	return Encode(id, prefix)
}

func prefixBytes(prefix uint16) ([]byte, error) {
	switch {
	case prefix < 64:
		return []byte{byte(prefix)}, nil
	case prefix <= maxPrefix:
		first := byte((prefix&0b0000_0000_1111_1100)>>2) | 0b0100_0000
		second := byte(prefix>>8) | byte((prefix&0b0000_0000_0000_0011)<<6)
		return []byte{first, second}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPrefix, prefix)
	}
}

func checksum(payload []byte) [blake2b.Size]byte {
	return blake2b.Sum512(append(append([]byte{}, checksumPreimage...), payload...))
}
