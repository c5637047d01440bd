// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package blockwatch follows finalized blocks on several chains at once,
// keeps track of which chain is ahead and hands every block to a set of
// sinks.
package blockwatch

import (
	"fmt"
	"time"
)

// Extrinsic is one extrinsic of a finalized block.
type Extrinsic struct {
	// ID is "<height>-<index>", the form block explorers use.
	ID     string `json:"id"`
	Hash   string `json:"hash"`
	Signed bool   `json:"signed"`
	// Call is "pallet.call" in indices when the call index could be read.
	Call string `json:"call,omitempty"`
	// Pallet and Function name the call when runtime metadata is available.
	Pallet   string `json:"pallet,omitempty"`
	Function string `json:"function,omitempty"`
}

// RuntimeEvent is one event the runtime emitted in a block.
type RuntimeEvent struct {
	// Extrinsic is the ID of the emitting extrinsic, empty for events of
	// block initialization or finalization.
	Extrinsic string `json:"extrinsic,omitempty"`
	Pallet    string `json:"pallet"`
	Name      string `json:"name"`
	Values    string `json:"values,omitempty"`
}

// Event is one finalized block on one chain.
type Event struct {
	Chain      string         `json:"chain"`
	Hash       string         `json:"hash"`
	Height     uint64         `json:"height"`
	Extrinsics []Extrinsic    `json:"extrinsics"`
	Events     []RuntimeEvent `json:"events,omitempty"`
	// Partial is set when the block body could not be fetched.
	Partial bool      `json:"partial,omitempty"`
	Seen    time.Time `json:"seen"`
}

// LogLine is the block line written to log.txt.
func (e Event) LogLine() string {
	return fmt.Sprintf("Chain: %s, hash: %s, height: %d", e.Chain, e.Hash, e.Height)
}

func (x Extrinsic) line(chain string) string {
	return fmt.Sprintf("Chain: %s, extrinsic: %s, hash: %s, signed: %t, call: %s, pallet: %s, function: %s",
		chain, x.ID, x.Hash, x.Signed, orDash(x.Call), orDash(x.Pallet), orDash(x.Function))
}

func (r RuntimeEvent) line(chain string) string {
	return fmt.Sprintf("Chain: %s, extrinsic: %s, pallet: %s, event: %s, values: {%s}",
		chain, orDash(r.Extrinsic), r.Pallet, r.Name, r.Values)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
