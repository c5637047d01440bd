// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package blockwatch

import (
	"sort"
	"sync"
)

// ChainHeights is what the tracker knows about one chain.
type ChainHeights struct {
	Chain   string
	Latest  uint64
	Highest uint64
	Lowest  uint64
}

// Standing is a snapshot of all tracked chains.
type Standing struct {
	Chains []ChainHeights
	// HighestChain and LowestChain compare latest heights. Ties go to the
	// chain whose name sorts first.
	HighestChain string
	LowestChain  string
}

// Tracker records the heights seen per chain. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	chains map[string]*ChainHeights
}

func NewTracker() *Tracker {
	return &Tracker{chains: map[string]*ChainHeights{}}
}

// Observe records height as the latest finalized height of chain.
func (t *Tracker) Observe(chain string, height uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.chains[chain]
	if !ok {
		t.chains[chain] = &ChainHeights{Chain: chain, Latest: height, Highest: height, Lowest: height}
		return
	}
	h.Latest = height
	h.Highest = max(h.Highest, height)
	h.Lowest = min(h.Lowest, height)
}

func (t *Tracker) Standing() Standing {
	t.mu.Lock()
	defer t.mu.Unlock()
	var s Standing
	for _, h := range t.chains {
		s.Chains = append(s.Chains, *h)
	}
	sort.Slice(s.Chains, func(i, j int) bool { return s.Chains[i].Chain < s.Chains[j].Chain })
	for i, h := range s.Chains {
		if i == 0 {
			s.HighestChain, s.LowestChain = h.Chain, h.Chain
			continue
		}
		if h.Latest > t.chains[s.HighestChain].Latest {
			s.HighestChain = h.Chain
		}
		if h.Latest < t.chains[s.LowestChain].Latest {
			s.LowestChain = h.Chain
		}
	}
	return s
}
