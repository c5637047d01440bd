// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package substrate

import (
	"encoding/json"
	"fmt"
)

// ExtrinsicStatusKind is the node's transaction pool status.
type ExtrinsicStatusKind int

const (
	StatusFuture ExtrinsicStatusKind = iota
	StatusReady
	StatusBroadcast
	StatusInBlock
	StatusRetracted
	StatusFinalityTimeout
	StatusFinalized
	StatusUsurped
	StatusDropped
	StatusInvalid
)

var statusNames = map[string]ExtrinsicStatusKind{
	"future":          StatusFuture,
	"ready":           StatusReady,
	"broadcast":       StatusBroadcast,
	"inBlock":         StatusInBlock,
	"retracted":       StatusRetracted,
	"finalityTimeout": StatusFinalityTimeout,
	"finalized":       StatusFinalized,
	"usurped":         StatusUsurped,
	"dropped":         StatusDropped,
	"invalid":         StatusInvalid,
}

func (k ExtrinsicStatusKind) String() string {
	for name, kind := range statusNames {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("status(%d)", int(k))
}

// Terminal reports whether the pool stops watching after this status.
func (k ExtrinsicStatusKind) Terminal() bool {
	switch k {
	case StatusFinalized, StatusFinalityTimeout, StatusUsurped, StatusDropped, StatusInvalid:
		return true
	}
	return false
}

// ExtrinsicStatus is one author_extrinsicUpdate notification.
type ExtrinsicStatus struct {
	Kind ExtrinsicStatusKind
	// Block is set for inBlock, retracted, finalityTimeout and finalized.
	Block Hash
}

// ParseExtrinsicStatus decodes either a bare status string or a single-key
// object such as {"inBlock": "0x.."}.
func ParseExtrinsicStatus(raw json.RawMessage) (ExtrinsicStatus, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		kind, ok := statusNames[name]
		if !ok {
			return ExtrinsicStatus{}, fmt.Errorf("unknown extrinsic status %q", name)
		}
		return ExtrinsicStatus{Kind: kind}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) != 1 {
		return ExtrinsicStatus{}, fmt.Errorf("malformed extrinsic status %s", string(raw))
	}
	for name, value := range obj {
		kind, ok := statusNames[name]
		if !ok {
			return ExtrinsicStatus{}, fmt.Errorf("unknown extrinsic status %q", name)
		}
		st := ExtrinsicStatus{Kind: kind}
		switch kind {
		case StatusInBlock, StatusRetracted, StatusFinalityTimeout, StatusFinalized:
			var h string
			if err := json.Unmarshal(value, &h); err != nil {
				return ExtrinsicStatus{}, fmt.Errorf("extrinsic status %s: %w", name, err)
			}
			block, err := ParseHash(h)
			if err != nil {
				return ExtrinsicStatus{}, fmt.Errorf("extrinsic status %s: %w", name, err)
			}
			st.Block = block
		}
		return st, nil
	}
	return ExtrinsicStatus{}, nil
}
