// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package blockwatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/substrate"
	luxlog "github.com/luxfi/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoSources   = errors.New("no chains to watch")
	ErrStreamEnded = errors.New("finalized head stream ended")
	ErrSinkClosed  = errors.New("sink closed")
)

// Source is a chain the watcher can follow.
type Source interface {
	Chain() models.Chain
	SubscribeFinalizedHeads(ctx context.Context) (<-chan *substrate.Header, substrate.Unsubscribe, error)
	Block(ctx context.Context, hash substrate.Hash) (*substrate.Block, error)
	Metadata(ctx context.Context, at substrate.Hash) (*substrate.Metadata, error)
	Events(ctx context.Context, meta *substrate.Metadata, at substrate.Hash) ([]substrate.EventRecord, error)
}

type Option func(*Watcher)

func WithLogger(log luxlog.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithObserver registers fn to run after each event has been tracked and
// written. fn runs on the watcher's consumer goroutine.
func WithObserver(fn func(Event, Standing)) Option {
	return func(w *Watcher) { w.observe = fn }
}

// Watcher merges the finalized head streams of its sources.
type Watcher struct {
	sources []Source
	sink    Sink
	tracker *Tracker
	log     luxlog.Logger
	observe func(Event, Standing)
	now     func() time.Time
}

func NewWatcher(sources []Source, sink Sink, opts ...Option) *Watcher {
	w := &Watcher{
		sources: sources,
		sink:    sink,
		tracker: NewTracker(),
		log:     luxlog.NewNoOpLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) Standing() Standing {
	return w.tracker.Standing()
}

// Run follows every source until ctx is done, returning nil in that case.
// It returns an error wrapping ErrStreamEnded as soon as any source's
// stream closes. Sink failures are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.sources) == 0 {
		return ErrNoSources
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	var unsubs []substrate.Unsubscribe
	defer func() {
		for _, unsub := range unsubs {
			if err := unsub(); err != nil {
				w.log.Debug("unsubscribe finalized heads", "error", err)
			}
		}
	}()

	events := make(chan Event)
	for _, src := range w.sources {
		heads, unsub, err := src.SubscribeFinalizedHeads(gctx)
		if err != nil {
			cancel()
			_ = g.Wait()
			return fmt.Errorf("subscribe %s: %w", src.Chain().Name, err)
		}
		unsubs = append(unsubs, unsub)
		w.log.Info("watching finalized blocks", "chain", src.Chain().Name)
		g.Go(func() error {
			return w.follow(gctx, src, heads, events)
		})
	}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case e := <-events:
				w.record(gctx, e)
			}
		}
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *Watcher) follow(ctx context.Context, src Source, heads <-chan *substrate.Header, events chan<- Event) error {
	name := src.Chain().Name
	var meta *substrate.Metadata
	for {
		var (
			h  *substrate.Header
			ok bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case h, ok = <-heads:
			if !ok {
				return fmt.Errorf("%s: %w", name, ErrStreamEnded)
			}
		}
		e := w.event(ctx, src, h, &meta)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case events <- e:
		}
	}
}

// event reads the body of the block h. A block that cannot be fetched is
// still reported, marked partial. meta caches the runtime metadata of the
// source; it is dropped after a runtime upgrade or a failed event decode
// and fetched again for the next block.
func (w *Watcher) event(ctx context.Context, src Source, h *substrate.Header, meta **substrate.Metadata) Event {
	e := Event{
		Chain:  src.Chain().Name,
		Hash:   h.Hash.Hex(),
		Height: h.Number,
		Seen:   w.now(),
	}
	block, err := src.Block(ctx, h.Hash)
	if err != nil {
		w.log.Warn("failed to fetch block", "chain", e.Chain, "height", e.Height, "error", err)
		e.Partial = true
		return e
	}
	if *meta == nil {
		// the parent state holds the runtime that executed this block
		m, err := src.Metadata(ctx, h.ParentHash)
		if err != nil {
			w.log.Debug("runtime metadata unavailable", "chain", e.Chain, "height", e.Height, "error", err)
		}
		*meta = m
	}
	m := *meta

	e.Extrinsics = make([]Extrinsic, 0, len(block.Extrinsics))
	for i, x := range block.Extrinsics {
		rec := Extrinsic{
			ID:   extrinsicID(h.Number, uint32(i)),
			Hash: x.Hash().Hex(),
		}
		info, err := substrate.InspectExtrinsic(x)
		if err != nil {
			w.log.Debug("unreadable extrinsic", "chain", e.Chain, "id", rec.ID, "error", err)
		}
		rec.Signed = info.Signed
		if info.Call != nil {
			rec.Call = info.Call.String()
		}
		if m != nil {
			if idx, err := m.ExtrinsicCall(x); err != nil {
				w.log.Debug("undecodable extrinsic call", "chain", e.Chain, "id", rec.ID, "error", err)
			} else {
				rec.Call = idx.String()
				rec.Pallet, rec.Function, _ = m.CallName(idx)
			}
		}
		e.Extrinsics = append(e.Extrinsics, rec)
	}
	if m == nil {
		return e
	}

	records, err := src.Events(ctx, m, h.Hash)
	if err != nil {
		w.log.Warn("failed to read block events", "chain", e.Chain, "height", e.Height, "error", err)
		*meta = nil
		return e
	}
	for _, r := range records {
		ev := RuntimeEvent{Pallet: r.Pallet, Name: r.Name, Values: r.Values()}
		if r.Extrinsic != nil {
			ev.Extrinsic = extrinsicID(h.Number, *r.Extrinsic)
		}
		e.Events = append(e.Events, ev)
		if r.Pallet == "System" && r.Name == "CodeUpdated" {
			w.log.Info("runtime upgraded", "chain", e.Chain, "height", e.Height)
			*meta = nil
		}
	}
	return e
}

func extrinsicID(height uint64, index uint32) string {
	return fmt.Sprintf("%d-%d", height, index)
}

func (w *Watcher) record(ctx context.Context, e Event) {
	w.tracker.Observe(e.Chain, e.Height)
	if err := w.sink.Write(ctx, e); err != nil {
		w.log.Warn("failed to write block", "chain", e.Chain, "height", e.Height, "error", err)
	}
	standing := w.tracker.Standing()
	w.log.Info("finalized block",
		"chain", e.Chain,
		"height", e.Height,
		"hash", e.Hash,
		"extrinsics", len(e.Extrinsics),
		"events", len(e.Events),
		"highest", standing.HighestChain,
		"lowest", standing.LowestChain,
	)
	if w.observe != nil {
		w.observe(e, standing)
	}
}
