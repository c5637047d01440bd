// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wallet

import (
	"context"
	"fmt"

	"github.com/luxfi/dotcli/pkg/key"
	"github.com/luxfi/dotcli/pkg/prompts"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/substrate"
)

// backendInjected serves accounts and signatures out of a key backend.
type backendInjected struct {
	backend  key.KeyBackend
	prefix   uint16
	prompter prompts.Prompter
}

func (b *backendInjected) Accounts(ctx context.Context) ([]Account, error) {
	keys, err := b.backend.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(keys))
	for _, k := range keys {
		addr, err := ss58.Encode(k.PublicKey, b.prefix)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, Account{Address: addr, Name: k.Name})
	}
	return accounts, nil
}

func (b *backendInjected) Signer() Signer {
	return &backendSigner{backendInjected: b}
}

type backendSigner struct {
	*backendInjected
}

// SignPayload signs with the key behind address. A locked key is unlocked
// with DOTCLI_KEY_PASSWORD or, failing that, a masked password prompt.
func (s *backendSigner) SignPayload(ctx context.Context, address string, payload []byte) (Signature, error) {
	id, _, err := ss58.Decode(address)
	if err != nil {
		return Signature{}, err
	}
	name, err := s.keyName(ctx, id)
	if err != nil {
		return Signature{}, err
	}
	if s.backend.RequiresPassword() && s.backend.IsLocked(name) {
		if err := s.unlock(ctx, name); err != nil {
			return Signature{}, err
		}
	}
	resp, err := s.backend.Sign(ctx, name, payload)
	if err != nil {
		return Signature{}, err
	}
	if resp.PublicKey != id {
		return Signature{}, fmt.Errorf("key %q signed as %s", name, resp.PublicKey.Hex())
	}
	return Signature{Scheme: substrate.SchemeEd25519, Bytes: resp.Signature}, nil
}

func (s *backendSigner) keyName(ctx context.Context, id ss58.AccountID) (string, error) {
	keys, err := s.backend.ListKeys(ctx)
	if err != nil {
		return "", err
	}
	for _, k := range keys {
		if k.PublicKey == id {
			return k.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAccount, ss58.MustEncode(id, s.prefix))
}

func (s *backendSigner) unlock(ctx context.Context, name string) error {
	password := key.GetPasswordFromEnv()
	if password == "" {
		if s.prompter == nil {
			return key.ErrKeyLocked
		}
		var err error
		password, err = promptWithContext(ctx, func() (string, error) {
			return s.prompter.CapturePassword(fmt.Sprintf("Password for key %q", name))
		})
		if err != nil {
			return err
		}
	}
	return s.backend.Unlock(ctx, name, password)
}

// promptWithContext runs a blocking prompt and gives up when ctx is done.
// A terminal read can not be interrupted: the prompt's goroutine ends with
// the next line of input and its answer is dropped.
func promptWithContext[T any](ctx context.Context, prompt func() (T, error)) (T, error) {
	type answer struct {
		value T
		err   error
	}
	done := make(chan answer, 1)
	go func() {
		v, err := prompt()
		done <- answer{value: v, err: err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case a := <-done:
		return a.value, a.err
	}
}

// EnvProvider exposes the key from DOTCLI_PRIVATE_KEY or DOTCLI_MNEMONIC.
// Setting the variable is the authorization.
type EnvProvider struct {
	backend key.KeyBackend
	prefix  uint16
}

const EnvProviderName = "env"

func NewEnvProvider(backend key.KeyBackend, prefix uint16) *EnvProvider {
	return &EnvProvider{backend: backend, prefix: prefix}
}

func (*EnvProvider) Name() string {
	return EnvProviderName
}

func (p *EnvProvider) Available() bool {
	return p.backend.Available()
}

func (p *EnvProvider) Enable(context.Context, string) (Injected, error) {
	if !p.Available() {
		return nil, ErrProviderUnavailable
	}
	return &backendInjected{backend: p.backend, prefix: p.prefix}, nil
}
