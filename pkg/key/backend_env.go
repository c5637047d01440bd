// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package key

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/luxfi/dotcli/pkg/ss58"
)

// Environment variable names for key loading
const (
	// EnvMnemonic contains a BIP39 mnemonic phrase
	EnvMnemonic = "DOTCLI_MNEMONIC"

	// EnvPrivateKey contains a hex-encoded 32-byte ed25519 seed
	EnvPrivateKey = "DOTCLI_PRIVATE_KEY"

	// EnvKeyPassword unlocks encrypted keystores
	EnvKeyPassword = "DOTCLI_KEY_PASSWORD"

	EnvKeySessionTimeout = "DOTCLI_KEY_SESSION_TIMEOUT"

	// EnvKeyName is the single key name the env backend exposes
	EnvKeyName = "env"
)

// EnvBackend exposes one key taken from the environment. The seed takes
// precedence over the mnemonic.
type EnvBackend struct {
	mu  sync.Mutex
	key *KeyPair
}

func NewEnvBackend() *EnvBackend {
	return &EnvBackend{}
}

func (*EnvBackend) Type() BackendType {
	return BackendEnv
}

func (*EnvBackend) Name() string {
	return "Environment Variables"
}

func (*EnvBackend) Available() bool {
	return os.Getenv(EnvMnemonic) != "" || os.Getenv(EnvPrivateKey) != ""
}

func (*EnvBackend) RequiresPassword() bool {
	return false
}

func (*EnvBackend) Initialize(context.Context, BackendConfig) error {
	return nil
}

func (b *EnvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.key != nil {
		b.key.Zero()
		b.key = nil
	}
	return nil
}

func (*EnvBackend) CreateKey(context.Context, string, CreateKeyOptions) (*KeyPair, error) {
	return nil, fmt.Errorf("%w: set %s or %s instead", ErrReadOnlyBackend, EnvMnemonic, EnvPrivateKey)
}

func (b *EnvBackend) LoadKey(_ context.Context, name, _ string) (*KeyPair, error) {
	if name != EnvKeyName {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	kp, err := b.load()
	if err != nil {
		return nil, err
	}
	// callers may zero what they get back
	clone, err := NewKeyPairFromSeed(kp.Name, kp.Seed())
	if err != nil {
		return nil, err
	}
	clone.Mnemonic = kp.Mnemonic
	return clone, nil
}

func (b *EnvBackend) load() (*KeyPair, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.key != nil {
		return b.key, nil
	}

	var (
		kp  *KeyPair
		err error
	)
	switch {
	case os.Getenv(EnvPrivateKey) != "":
		kp, err = NewKeyPairFromHex(EnvKeyName, os.Getenv(EnvPrivateKey))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPrivateKey, err)
		}
	case os.Getenv(EnvMnemonic) != "":
		kp, err = NewKeyPairFromMnemonic(EnvKeyName, os.Getenv(EnvMnemonic))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvMnemonic, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrBackendNotSupported, BackendEnv)
	}
	b.key = kp
	return kp, nil
}

func (*EnvBackend) DeleteKey(context.Context, string) error {
	return ErrReadOnlyBackend
}

func (b *EnvBackend) ListKeys(context.Context) ([]KeyInfo, error) {
	if !b.Available() {
		return []KeyInfo{}, nil
	}
	kp, err := b.load()
	if err != nil {
		return nil, err
	}
	return []KeyInfo{{
		Name:      EnvKeyName,
		Address:   kp.Address(ss58.GenericPrefix),
		PublicKey: kp.Public,
		Backend:   BackendEnv,
	}}, nil
}

func (*EnvBackend) Lock(context.Context, string) error {
	return nil
}

func (*EnvBackend) Unlock(context.Context, string, string) error {
	return nil
}

func (*EnvBackend) IsLocked(string) bool {
	return false
}

func (b *EnvBackend) Sign(_ context.Context, name string, payload []byte) (*SignResponse, error) {
	if name != EnvKeyName {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	kp, err := b.load()
	if err != nil {
		return nil, err
	}
	sig, err := kp.Sign(payload)
	if err != nil {
		return nil, err
	}
	return &SignResponse{Signature: sig, PublicKey: kp.Public}, nil
}
