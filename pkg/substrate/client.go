// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package substrate speaks the standard node JSON-RPC and SCALE encoding
// for the storage entries and calls dotcli needs. Runtime metadata is only
// read to name the calls and events of finalized blocks.
package substrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/luxfi/dotcli/pkg/chain"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/ss58"
	luxlog "github.com/luxfi/log"
	"golang.org/x/sync/errgroup"
)

// RPC is the part of a chain session the client uses.
type RPC interface {
	Call(ctx context.Context, method string, params []any, result any) error
	Subscribe(ctx context.Context, method, unsubMethod string, params []any) (*chain.Subscription, error)
}

// Unsubscribe releases a subscription. It is safe to call more than once.
type Unsubscribe func() error

// Client is a typed view over one chain session.
type Client struct {
	rpc   RPC
	chain models.Chain
	log   luxlog.Logger
}

func NewClient(rpc RPC, c models.Chain, log luxlog.Logger) *Client {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &Client{rpc: rpc, chain: c, log: log}
}

// Chain is the static configuration the client was built for.
func (c *Client) Chain() models.Chain {
	return c.chain
}

// Storage reads one storage value. An absent value is nil with no error.
func (c *Client) Storage(ctx context.Context, key StorageKey) ([]byte, error) {
	var value *string
	if err := c.rpc.Call(ctx, "state_getStorage", []any{key.Hex()}, &value); err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return DecodeHex(*value)
}

// StorageAt reads one storage value as of block at.
func (c *Client) StorageAt(ctx context.Context, key StorageKey, at Hash) ([]byte, error) {
	var value *string
	if err := c.rpc.Call(ctx, "state_getStorage", []any{key.Hex(), at.Hex()}, &value); err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return DecodeHex(*value)
}

// Metadata fetches and decodes the runtime metadata as of block at.
func (c *Client) Metadata(ctx context.Context, at Hash) (*Metadata, error) {
	var raw string
	if err := c.rpc.Call(ctx, "state_getMetadata", []any{at.Hex()}, &raw); err != nil {
		return nil, err
	}
	return DecodeMetadata(raw)
}

// Events reads and decodes System.Events as of block at.
func (c *Client) Events(ctx context.Context, meta *Metadata, at Hash) ([]EventRecord, error) {
	raw, err := c.StorageAt(ctx, SystemEventsKey(), at)
	if err != nil {
		return nil, err
	}
	return meta.DecodeEvents(raw)
}

type storageChangeSet struct {
	Block   string              `json:"block"`
	Changes [][]json.RawMessage `json:"changes"`
}

// SubscribeStorage calls fn with every new value of key, nil when the
// value is removed. fn runs on a single goroutine in notification order.
func (c *Client) SubscribeStorage(ctx context.Context, key StorageKey, fn func([]byte)) (Unsubscribe, error) {
	want := key.Hex()
	sub, err := c.rpc.Subscribe(ctx, "state_subscribeStorage", "state_unsubscribeStorage", []any{[]string{want}})
	if err != nil {
		return nil, err
	}
	go func() {
		for raw := range sub.Notifications() {
			var set storageChangeSet
			if err := json.Unmarshal(raw, &set); err != nil {
				c.log.Warn("malformed storage notification", "key", want, "error", err)
				continue
			}
			for _, change := range set.Changes {
				value, ok := c.changeValue(want, change)
				if ok {
					fn(value)
				}
			}
		}
	}()
	return sub.Unsubscribe, nil
}

func (c *Client) changeValue(want string, change []json.RawMessage) ([]byte, bool) {
	if len(change) != 2 {
		return nil, false
	}
	var k string
	var v *string
	if json.Unmarshal(change[0], &k) != nil || !strings.EqualFold(k, want) {
		return nil, false
	}
	if err := json.Unmarshal(change[1], &v); err != nil {
		c.log.Warn("malformed storage change", "key", want, "error", err)
		return nil, false
	}
	if v == nil {
		return nil, true
	}
	value, err := DecodeHex(*v)
	if err != nil {
		c.log.Warn("malformed storage change", "key", want, "error", err)
		return nil, false
	}
	return value, true
}

// RuntimeVersion is the subset of state_getRuntimeVersion signing needs.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

func (c *Client) RuntimeVersion(ctx context.Context) (RuntimeVersion, error) {
	var v RuntimeVersion
	err := c.rpc.Call(ctx, "state_getRuntimeVersion", nil, &v)
	return v, err
}

// BlockHash returns the hash of block number n.
func (c *Client) BlockHash(ctx context.Context, n uint64) (Hash, error) {
	var h *string
	if err := c.rpc.Call(ctx, "chain_getBlockHash", []any{n}, &h); err != nil {
		return Hash{}, err
	}
	if h == nil {
		return Hash{}, fmt.Errorf("block %d not found", n)
	}
	return ParseHash(*h)
}

func (c *Client) AccountNextIndex(ctx context.Context, id ss58.AccountID) (uint64, error) {
	address, err := ss58.Encode(id, c.chain.SS58Prefix)
	if err != nil {
		return 0, err
	}
	var nonce uint64
	err = c.rpc.Call(ctx, "system_accountNextIndex", []any{address}, &nonce)
	return nonce, err
}

// SigningContext gathers nonce, runtime versions and genesis hash in parallel.
func (c *Client) SigningContext(ctx context.Context, id ss58.AccountID) (SigningContext, error) {
	sc := SigningContext{MetadataHash: c.chain.MetadataHash}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.RuntimeVersion(gctx)
		if err != nil {
			return fmt.Errorf("runtime version: %w", err)
		}
		sc.SpecVersion = v.SpecVersion
		sc.TransactionVersion = v.TransactionVersion
		return nil
	})
	g.Go(func() error {
		h, err := c.BlockHash(gctx, 0)
		if err != nil {
			return fmt.Errorf("genesis hash: %w", err)
		}
		sc.GenesisHash = h
		return nil
	})
	g.Go(func() error {
		n, err := c.AccountNextIndex(gctx, id)
		if err != nil {
			return fmt.Errorf("account nonce: %w", err)
		}
		sc.Nonce = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return SigningContext{}, err
	}
	return sc, nil
}

// SubmitAndWatch submits ext and streams its pool status. The channel is
// closed when the node stops reporting, the subscription is released or
// the session ends.
func (c *Client) SubmitAndWatch(ctx context.Context, ext Extrinsic) (<-chan ExtrinsicStatus, Unsubscribe, error) {
	sub, err := c.rpc.Subscribe(ctx, "author_submitAndWatchExtrinsic", "author_unwatchExtrinsic", []any{ext.Hex()})
	if err != nil {
		return nil, nil, err
	}
	hash := ext.Hash()
	c.log.Info("extrinsic submitted", "chain", c.chain.Name, "hash", hash.Hex())

	out := make(chan ExtrinsicStatus)
	go func() {
		defer close(out)
		for raw := range sub.Notifications() {
			st, err := ParseExtrinsicStatus(raw)
			if err != nil {
				c.log.Warn("skipping extrinsic status", "hash", hash.Hex(), "error", err)
				continue
			}
			c.log.Debug("extrinsic status", "hash", hash.Hex(), "status", st.Kind.String())
			select {
			case out <- st:
			case <-sub.Done():
				return
			}
			if st.Kind.Terminal() {
				_ = sub.Unsubscribe()
				return
			}
		}
	}()
	return out, sub.Unsubscribe, nil
}

// Header is a block header. Hash is computed locally from its encoding.
type Header struct {
	Hash           Hash
	ParentHash     Hash
	Number         uint64
	StateRoot      Hash
	ExtrinsicsRoot Hash
	Digest         [][]byte
}

type rpcHeader struct {
	ParentHash     string `json:"parentHash"`
	Number         string `json:"number"`
	StateRoot      string `json:"stateRoot"`
	ExtrinsicsRoot string `json:"extrinsicsRoot"`
	Digest         struct {
		Logs []string `json:"logs"`
	} `json:"digest"`
}

func (r rpcHeader) decode() (*Header, error) {
	var (
		h   Header
		err error
	)
	if h.ParentHash, err = ParseHash(r.ParentHash); err != nil {
		return nil, fmt.Errorf("header parent: %w", err)
	}
	if h.Number, err = ParseHexNumber(r.Number); err != nil {
		return nil, fmt.Errorf("header number: %w", err)
	}
	if h.StateRoot, err = ParseHash(r.StateRoot); err != nil {
		return nil, fmt.Errorf("header state root: %w", err)
	}
	if h.ExtrinsicsRoot, err = ParseHash(r.ExtrinsicsRoot); err != nil {
		return nil, fmt.Errorf("header extrinsics root: %w", err)
	}
	for _, l := range r.Digest.Logs {
		item, err := DecodeHex(l)
		if err != nil {
			return nil, fmt.Errorf("header digest: %w", err)
		}
		h.Digest = append(h.Digest, item)
	}
	enc, err := h.Encode()
	if err != nil {
		return nil, err
	}
	h.Hash = Blake2_256(enc)
	return &h, nil
}

// Encode returns the SCALE encoding the header hash is taken over.
func (h *Header) Encode() ([]byte, error) {
	var buf bytes.Buffer
	e := scale.NewEncoder(&buf)
	buf.Write(h.ParentHash[:])
	if err := encodeCompactUint(e, h.Number); err != nil {
		return nil, err
	}
	buf.Write(h.StateRoot[:])
	buf.Write(h.ExtrinsicsRoot[:])
	if err := encodeCompactUint(e, uint64(len(h.Digest))); err != nil {
		return nil, err
	}
	for _, item := range h.Digest {
		buf.Write(item)
	}
	return buf.Bytes(), nil
}

// Header fetches the header of block hash.
func (c *Client) Header(ctx context.Context, hash Hash) (*Header, error) {
	var r *rpcHeader
	if err := c.rpc.Call(ctx, "chain_getHeader", []any{hash.Hex()}, &r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("header %s not found", hash.Hex())
	}
	return r.decode()
}

// Block is a header with its encoded extrinsics.
type Block struct {
	Header     *Header
	Extrinsics []Extrinsic
}

func (c *Client) Block(ctx context.Context, hash Hash) (*Block, error) {
	var r *struct {
		Block struct {
			Header     rpcHeader `json:"header"`
			Extrinsics []string  `json:"extrinsics"`
		} `json:"block"`
	}
	if err := c.rpc.Call(ctx, "chain_getBlock", []any{hash.Hex()}, &r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("block %s not found", hash.Hex())
	}
	header, err := r.Block.Header.decode()
	if err != nil {
		return nil, err
	}
	b := &Block{Header: header}
	for _, x := range r.Block.Extrinsics {
		raw, err := DecodeHex(x)
		if err != nil {
			return nil, fmt.Errorf("block extrinsic: %w", err)
		}
		b.Extrinsics = append(b.Extrinsics, raw)
	}
	return b, nil
}

// SubscribeFinalizedHeads streams finalized headers. Malformed headers are
// logged and skipped.
func (c *Client) SubscribeFinalizedHeads(ctx context.Context) (<-chan *Header, Unsubscribe, error) {
	sub, err := c.rpc.Subscribe(ctx, "chain_subscribeFinalizedHeads", "chain_unsubscribeFinalizedHeads", nil)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan *Header)
	go func() {
		defer close(out)
		for raw := range sub.Notifications() {
			var r rpcHeader
			if err := json.Unmarshal(raw, &r); err != nil {
				c.log.Warn("malformed finalized head", "chain", c.chain.Name, "error", err)
				continue
			}
			h, err := r.decode()
			if err != nil {
				c.log.Warn("malformed finalized head", "chain", c.chain.Name, "error", err)
				continue
			}
			select {
			case out <- h:
			case <-sub.Done():
				return
			}
		}
	}()
	return out, sub.Unsubscribe, nil
}

// DispatchOutcome reconstructs whether ext dispatched successfully in
// block by re-applying it on top of the block's parent state. It returns
// nil on success, a *DispatchError on failure and an error wrapping
// ErrOutcomeUnknown when the result cannot be reconstructed.
func (c *Client) DispatchOutcome(ctx context.Context, ext Extrinsic, block Hash) error {
	header, err := c.Header(ctx, block)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutcomeUnknown, err)
	}
	var result string
	if err := c.rpc.Call(ctx, "state_call", []any{"BlockBuilder_apply_extrinsic", ext.Hex(), header.ParentHash.Hex()}, &result); err != nil {
		return fmt.Errorf("%w: %v", ErrOutcomeUnknown, err)
	}
	raw, err := DecodeHex(result)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutcomeUnknown, err)
	}
	outcome := DecodeApplyExtrinsicResult(raw)
	if outcome != nil {
		c.log.Info("extrinsic outcome", "hash", ext.Hash().Hex(), "block", block.Hex(), "result", outcome.Error())
	}
	return outcome
}
