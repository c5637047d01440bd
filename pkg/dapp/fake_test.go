// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"context"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/dotcli/pkg/key"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/substrate"
	"github.com/luxfi/dotcli/pkg/wallet"
	"github.com/stretchr/testify/require"
)

const (
	aliceAddr    = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bobAddr      = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
)

// fakeChain is an in-memory ChainClient. Every method except Chain counts
// as one transport call.
type fakeChain struct {
	chain models.Chain

	mu         sync.Mutex
	calls      int
	storage    map[string][]byte
	storageErr error
	subs       map[string][]func([]byte)
	unsubs     int
	submitted  []substrate.Extrinsic
	statuses   chan substrate.ExtrinsicStatus
	submitErr  error
	unwatched  int
	outcome    func(block substrate.Hash) error
	closed     int
}

func newFakeChain(t *testing.T, n models.Network) *fakeChain {
	t.Helper()
	c, err := n.Chain()
	require.NoError(t, err)
	return &fakeChain{
		chain:    c,
		storage:  map[string][]byte{},
		subs:     map[string][]func([]byte){},
		statuses: make(chan substrate.ExtrinsicStatus, 8),
	}
}

func (f *fakeChain) Chain() models.Chain {
	return f.chain
}

func (f *fakeChain) call() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeChain) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeChain) Storage(_ context.Context, k substrate.StorageKey) ([]byte, error) {
	f.call()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storageErr != nil {
		return nil, f.storageErr
	}
	return f.storage[k.Hex()], nil
}

func (f *fakeChain) SubscribeStorage(_ context.Context, k substrate.StorageKey, fn func([]byte)) (substrate.Unsubscribe, error) {
	f.call()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[k.Hex()] = append(f.subs[k.Hex()], fn)
	return func() error {
		f.mu.Lock()
		f.unsubs++
		f.mu.Unlock()
		return nil
	}, nil
}

// push delivers raw to every callback ever registered for k, including
// those already unsubscribed, as a node with queued notifications would.
func (f *fakeChain) push(k substrate.StorageKey, raw []byte) {
	f.mu.Lock()
	fns := append([]func([]byte){}, f.subs[k.Hex()]...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(raw)
	}
}

func (f *fakeChain) SigningContext(context.Context, ss58.AccountID) (substrate.SigningContext, error) {
	f.call()
	return substrate.SigningContext{
		Nonce:              7,
		SpecVersion:        1_017_001,
		TransactionVersion: 27,
		GenesisHash:        substrate.Hash{0xe1},
		MetadataHash:       f.chain.MetadataHash,
	}, nil
}

func (f *fakeChain) SubmitAndWatch(_ context.Context, ext substrate.Extrinsic) (<-chan substrate.ExtrinsicStatus, substrate.Unsubscribe, error) {
	f.call()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, ext)
	if f.submitErr != nil {
		return nil, nil, f.submitErr
	}
	return f.statuses, func() error {
		f.mu.Lock()
		f.unwatched++
		f.mu.Unlock()
		return nil
	}, nil
}

func (f *fakeChain) DispatchOutcome(_ context.Context, _ substrate.Extrinsic, block substrate.Hash) error {
	f.call()
	if f.outcome == nil {
		return nil
	}
	return f.outcome(block)
}

func (f *fakeChain) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

func (f *fakeChain) Submitted() []substrate.Extrinsic {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]substrate.Extrinsic{}, f.submitted...)
}

func (f *fakeChain) setBalance(t *testing.T, address string, free uint64) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storage[accountKey(t, address).Hex()] = accountInfo(t, free)
}

func accountKey(t *testing.T, address string) substrate.StorageKey {
	t.Helper()
	id, _, err := ss58.Decode(address)
	require.NoError(t, err)
	return substrate.SystemAccountKey(id)
}

func accountInfo(t *testing.T, free uint64) []byte {
	t.Helper()
	info := substrate.EmptyAccountInfo()
	info.Data.Free = uint256.NewInt(free)
	raw, err := substrate.EncodeAccountInfo(info)
	require.NoError(t, err)
	return raw
}

// keySigner signs with an in-memory key pair.
type keySigner struct {
	kp *key.KeyPair

	mu    sync.Mutex
	calls int
}

func newKeySigner(t *testing.T) *keySigner {
	t.Helper()
	kp, err := key.NewKeyPairFromMnemonic("alice", testMnemonic)
	require.NoError(t, err)
	return &keySigner{kp: kp}
}

func (s *keySigner) account() wallet.Account {
	return wallet.Account{Address: s.kp.Address(ss58.GenericPrefix), Name: "alice"}
}

func (s *keySigner) SignPayload(_ context.Context, _ string, payload []byte) (wallet.Signature, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	sig, err := s.kp.Sign(payload)
	if err != nil {
		return wallet.Signature{}, err
	}
	return wallet.Signature{Scheme: substrate.SchemeEd25519, Bytes: sig}, nil
}

func (s *keySigner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func blockHash(b byte) substrate.Hash {
	var h substrate.Hash
	h[0] = b
	return h
}

func walletAccount(address string) wallet.Account {
	return wallet.Account{Address: address}
}
