// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"errors"
	"fmt"

	"github.com/luxfi/dotcli/pkg/ss58"
)

var (
	// ErrInvalidAddress is returned before any transport call when an
	// address does not decode as SS58.
	ErrInvalidAddress = ss58.ErrInvalidAddress

	ErrEmptyDisplayName    = errors.New("display name must not be empty")
	ErrFieldTooLong        = errors.New("identity field longer than 32 bytes")
	ErrIdentityUnsupported = errors.New("chain has no identity pallet")
	ErrNotMounted          = errors.New("controller is not mounted")
	ErrTornDown            = errors.New("controller was torn down")
	ErrAccountIndex        = errors.New("account index out of range")
)

// QueryKind tells a missing record apart from a failed read.
type QueryKind int

const (
	QueryTransport QueryKind = iota
	QueryNotFound
)

func (k QueryKind) String() string {
	if k == QueryNotFound {
		return "not found"
	}
	return "transport"
}

// QueryError is a failed chain state read.
type QueryError struct {
	Kind    QueryKind
	Op      string
	Address string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query for %s failed (%s): %v", e.Op, e.Address, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func queryError(kind QueryKind, op, address string, err error) error {
	return &QueryError{Kind: kind, Op: op, Address: address, Err: err}
}

// SubmissionError is a failure before the extrinsic reached the node's
// pool: fetching the signing context, signing, or encoding.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed at %s: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func invalidAddress(address string) error {
	return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
}
