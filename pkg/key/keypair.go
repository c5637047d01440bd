// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package key

import (
	"crypto"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/ss58"
	bip39 "github.com/luxfi/go-bip39"
	ed "github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// SeedSize is the size of an ed25519 seed (the substrate mini secret)
	SeedSize = ed.SeedSize

	mnemonicEntropyBits = 128 // 12 words, the substrate default
	miniSecretRounds    = 2048
)

// KeyPair is an ed25519 account key. Mnemonic is empty for keys imported
// from a raw seed.
type KeyPair struct {
	Name     string
	Mnemonic string
	Public   ss58.AccountID

	private ed.PrivateKey
}

// GenerateMnemonic generates a new 12-word BIP39 phrase
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate entropy")
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate mnemonic")
	}
	return mnemonic, nil
}

// ValidateMnemonic validates a BIP39 mnemonic phrase
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalizeMnemonic(mnemonic))
}

// MiniSecret derives the substrate seed of a phrase: the first 32 bytes of
// PBKDF2-SHA512 over the BIP39 entropy, salted with "mnemonic"+password.
func MiniSecret(mnemonic, password string) ([]byte, error) {
	mnemonic = normalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidMnemonic, err.Error())
	}
	seed := pbkdf2.Key(entropy, []byte("mnemonic"+password), miniSecretRounds, 64, sha512.New)
	defer zero(seed[SeedSize:])
	return seed[:SeedSize], nil
}

// NewKeyPairFromMnemonic derives the root ed25519 key of a phrase.
func NewKeyPairFromMnemonic(name, mnemonic string) (*KeyPair, error) {
	seed, err := MiniSecret(mnemonic, "")
	if err != nil {
		return nil, err
	}
	defer zero(seed)
	kp, err := NewKeyPairFromSeed(name, seed)
	if err != nil {
		return nil, err
	}
	kp.Mnemonic = normalizeMnemonic(mnemonic)
	return kp, nil
}

// NewKeyPairFromSeed builds a key from a 32-byte seed.
func NewKeyPairFromSeed(name string, seed []byte) (*KeyPair, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	priv := ed.NewKeyFromSeed(seed)
	kp := &KeyPair{Name: name, private: priv}
	copy(kp.Public[:], priv.Public().(ed.PublicKey))
	return kp, nil
}

// NewKeyPairFromHex accepts a 0x-prefixed or bare hex seed.
func NewKeyPairFromHex(name, seedHex string) (*KeyPair, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(seedHex), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex seed")
	}
	defer zero(seed)
	return NewKeyPairFromSeed(name, seed)
}

// Address renders the public key for the given network prefix.
func (k *KeyPair) Address(prefix uint16) string {
	return ss58.MustEncode(k.Public, prefix)
}

// Seed returns a copy of the private seed.
func (k *KeyPair) Seed() []byte {
	return append([]byte(nil), k.private.Seed()...)
}

func (k *KeyPair) Sign(payload []byte) ([]byte, error) {
	if len(k.private) == 0 {
		return nil, ErrKeyLocked
	}
	return k.private.Sign(nil, payload, crypto.Hash(0))
}

// Zero wipes the private key.
func (k *KeyPair) Zero() {
	zero(k.private)
	k.private = nil
	k.Mnemonic = ""
}

// Verify checks an ed25519 signature made by id.
func Verify(id ss58.AccountID, payload, sig []byte) bool {
	return ed.Verify(ed.PublicKey(id[:]), payload, sig)
}

// GetKeysDir returns the default base directory for all keys
func GetKeysDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.BaseDirName, constants.KeyDir), nil
}

func normalizeMnemonic(m string) string {
	return strings.Join(strings.Fields(m), " ")
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
