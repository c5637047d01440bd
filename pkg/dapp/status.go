// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/dotcli/pkg/substrate"
	luxlog "github.com/luxfi/log"
)

var (
	ErrConnectionLost = errors.New("status stream ended before finalization")
	ErrStreamClosed   = errors.New("status stream closed before a terminal status")
)

type StatusKind int

const (
	StatusSubmitted StatusKind = iota
	StatusIncludedInBlock
	StatusFinalized
	StatusFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusSubmitted:
		return "submitted"
	case StatusIncludedInBlock:
		return "included in block"
	case StatusFinalized:
		return "finalized"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(k))
}

type FailureKind int

const (
	// FailureSubmission: the pool rejected or dropped the extrinsic, or we
	// stopped hearing about it.
	FailureSubmission FailureKind = iota
	// FailureDispatch: the extrinsic is in a block but its call failed.
	FailureDispatch
)

func (k FailureKind) String() string {
	if k == FailureDispatch {
		return "dispatch"
	}
	return "submission"
}

// FailureReason explains a Failed status. For dispatch failures Err is a
// *substrate.DispatchError.
type FailureReason struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (r *FailureReason) Error() string {
	if r.Err == nil {
		return fmt.Sprintf("%s failure: %s", r.Kind, r.Message)
	}
	return fmt.Sprintf("%s failure: %s: %v", r.Kind, r.Message, r.Err)
}

func (r *FailureReason) Unwrap() error {
	return r.Err
}

// TransactionStatus is one step of an extrinsic's life as the user sees it.
type TransactionStatus struct {
	Kind      StatusKind
	BlockHash string
	Reason    *FailureReason
}

// Terminal is true for Finalized and Failed.
func (s TransactionStatus) Terminal() bool {
	return s.Kind == StatusFinalized || s.Kind == StatusFailed
}

func (s TransactionStatus) String() string {
	switch {
	case s.Reason != nil:
		return s.Kind.String() + ": " + s.Reason.Error()
	case s.BlockHash != "":
		return s.Kind.String() + " " + s.BlockHash
	}
	return s.Kind.String()
}

func failed(kind FailureKind, msg string, err error) TransactionStatus {
	return TransactionStatus{Kind: StatusFailed, Reason: &FailureReason{Kind: kind, Message: msg, Err: err}}
}

type outcomeFunc func(ctx context.Context, block substrate.Hash) error

// StatusStream is the finite status sequence of one submitted extrinsic.
// Read it through either Updates or Wait, not both.
type StatusStream struct {
	hash    substrate.Hash
	updates chan TransactionStatus
	stop    chan struct{}
	unwatch substrate.Unsubscribe
	log     luxlog.Logger

	closeOnce sync.Once
}

func newStatusStream(hash substrate.Hash, unwatch substrate.Unsubscribe, log luxlog.Logger) *StatusStream {
	return &StatusStream{
		hash:    hash,
		updates: make(chan TransactionStatus),
		stop:    make(chan struct{}),
		unwatch: unwatch,
		log:     log,
	}
}

// newFailedStream is a stream holding a single Failed status.
func newFailedStream(hash substrate.Hash, st TransactionStatus, log luxlog.Logger) *StatusStream {
	s := newStatusStream(hash, func() error { return nil }, log)
	s.updates = make(chan TransactionStatus, 1)
	s.updates <- st
	close(s.updates)
	return s
}

// Hash is the extrinsic hash.
func (s *StatusStream) Hash() substrate.Hash {
	return s.hash
}

// Updates yields Submitted, IncludedInBlock and a terminal Finalized or
// Failed, then closes. Nothing follows Failed and IncludedInBlock never
// follows Finalized.
func (s *StatusStream) Updates() <-chan TransactionStatus {
	return s.updates
}

// Wait consumes the stream and returns its terminal status. If ctx is done
// first the stream is closed and ctx's error returned.
func (s *StatusStream) Wait(ctx context.Context) (TransactionStatus, error) {
	var last TransactionStatus
	for {
		select {
		case st, ok := <-s.updates:
			if !ok {
				if !last.Terminal() {
					return last, ErrStreamClosed
				}
				return last, nil
			}
			last = st
		case <-ctx.Done():
			_ = s.Close()
			return last, ctx.Err()
		}
	}
}

// Close stops watching the extrinsic. It does not cancel the extrinsic.
func (s *StatusStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	return nil
}

func (s *StatusStream) emit(st TransactionStatus) bool {
	select {
	case s.updates <- st:
		return true
	case <-s.stop:
		return false
	}
}

func (s *StatusStream) run(ctx context.Context, src <-chan substrate.ExtrinsicStatus, outcome outcomeFunc) {
	defer close(s.updates)
	defer func() {
		if err := s.unwatch(); err != nil {
			s.log.Debug("unwatch extrinsic", "hash", s.hash.Hex(), "error", err)
		}
	}()

	var (
		submitted bool
		checked   substrate.Hash
	)
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			s.emit(failed(FailureSubmission, "stopped watching", ctx.Err()))
			return
		case st, ok := <-src:
			if !ok {
				s.emit(failed(FailureSubmission, "connection lost", ErrConnectionLost))
				return
			}
			if !submitted {
				submitted = true
				if !s.emit(TransactionStatus{Kind: StatusSubmitted}) {
					return
				}
			}
			switch st.Kind {
			case substrate.StatusFuture, substrate.StatusReady, substrate.StatusBroadcast:
			case substrate.StatusInBlock:
				if !s.emit(TransactionStatus{Kind: StatusIncludedInBlock, BlockHash: st.Block.Hex()}) {
					return
				}
				if fail, ok := s.dispatch(ctx, outcome, st.Block); ok {
					s.emit(fail)
					return
				}
				checked = st.Block
			case substrate.StatusRetracted:
				s.log.Info("extrinsic retracted", "hash", s.hash.Hex(), "block", st.Block.Hex())
				checked = substrate.Hash{}
			case substrate.StatusFinalized:
				if checked != st.Block {
					if fail, ok := s.dispatch(ctx, outcome, st.Block); ok {
						s.emit(fail)
						return
					}
				}
				s.emit(TransactionStatus{Kind: StatusFinalized, BlockHash: st.Block.Hex()})
				return
			default:
				s.emit(failed(FailureSubmission, "extrinsic "+st.Kind.String(), nil))
				return
			}
		}
	}
}

// dispatch reports a Failed status when the extrinsic's call failed in
// block. An outcome that cannot be reconstructed is logged and treated as
// success.
func (s *StatusStream) dispatch(ctx context.Context, outcome outcomeFunc, block substrate.Hash) (TransactionStatus, bool) {
	err := outcome(ctx, block)
	if err == nil {
		return TransactionStatus{}, false
	}
	var de *substrate.DispatchError
	if errors.As(err, &de) {
		st := failed(FailureDispatch, de.Error(), de)
		st.BlockHash = block.Hex()
		return st, true
	}
	s.log.Warn("dispatch outcome unknown", "hash", s.hash.Hex(), "block", block.Hex(), "error", err)
	return TransactionStatus{}, false
}
