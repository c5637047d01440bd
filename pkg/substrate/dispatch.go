// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package substrate

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// ErrOutcomeUnknown means the dispatch result of an included extrinsic
// could not be reconstructed.
var ErrOutcomeUnknown = errors.New("dispatch outcome unknown")

var dispatchErrorNames = []string{
	"Other",
	"CannotLookup",
	"BadOrigin",
	"Module",
	"ConsumerRemaining",
	"NoProviders",
	"TooManyConsumers",
	"Token",
	"Arithmetic",
	"Transactional",
	"Exhausted",
	"Corruption",
	"Unavailable",
	"RootNotAllowed",
	"Trie",
}

var tokenErrorNames = []string{
	"FundsUnavailable",
	"OnlyProvider",
	"BelowMinimum",
	"CannotCreate",
	"UnknownAsset",
	"Frozen",
	"Unsupported",
	"CannotCreateHold",
	"NotExpendable",
	"Blocked",
}

var arithmeticErrorNames = []string{"Underflow", "Overflow", "DivisionByZero"}

var transactionalErrorNames = []string{"LimitReached", "NoLayer"}

const dispatchModule = 3

// ModuleError identifies a pallet error by pallet index and error bytes.
type ModuleError struct {
	Index byte
	Error [4]byte
}

// DispatchError is a runtime dispatch failure.
type DispatchError struct {
	Name string
	// Detail is the nested variant for Token, Arithmetic and Transactional.
	Detail string
	Module *ModuleError
}

func (e *DispatchError) Error() string {
	switch {
	case e.Module != nil:
		return fmt.Sprintf("dispatch error: Module(pallet %d, error %d)", e.Module.Index, e.Module.Error[0])
	case e.Detail != "":
		return fmt.Sprintf("dispatch error: %s(%s)", e.Name, e.Detail)
	}
	return "dispatch error: " + e.Name
}

// DecodeApplyExtrinsicResult decodes the result of BlockBuilder_apply_extrinsic.
// It returns nil for success, a *DispatchError for a failed dispatch and
// ErrOutcomeUnknown when the extrinsic was not valid at that state.
func DecodeApplyExtrinsicResult(raw []byte) error {
	d := scale.NewDecoder(bytes.NewReader(raw))
	validity, err := d.ReadOneByte()
	if err != nil {
		return wrapDecode("apply result", err)
	}
	if validity != 0 {
		return fmt.Errorf("%w: transaction validity error on re-application", ErrOutcomeUnknown)
	}
	outcome, err := d.ReadOneByte()
	if err != nil {
		return wrapDecode("dispatch outcome", err)
	}
	switch outcome {
	case 0:
		return nil
	case 1:
		return decodeDispatchError(d)
	}
	return fmt.Errorf("%w: dispatch outcome tag %d", ErrDecode, outcome)
}

func decodeDispatchError(d *scale.Decoder) error {
	tag, err := d.ReadOneByte()
	if err != nil {
		return wrapDecode("dispatch error", err)
	}
	if int(tag) >= len(dispatchErrorNames) {
		return &DispatchError{Name: fmt.Sprintf("Unknown(%d)", tag)}
	}
	de := &DispatchError{Name: dispatchErrorNames[tag]}
	var nested []string
	switch tag {
	case dispatchModule:
		var m ModuleError
		if m.Index, err = d.ReadOneByte(); err != nil {
			return wrapDecode("module error", err)
		}
		if err := d.Read(m.Error[:]); err != nil {
			return wrapDecode("module error", err)
		}
		de.Module = &m
		return de
	case 7:
		nested = tokenErrorNames
	case 8:
		nested = arithmeticErrorNames
	case 9:
		nested = transactionalErrorNames
	default:
		return de
	}
	sub, err := d.ReadOneByte()
	if err != nil {
		return wrapDecode(de.Name, err)
	}
	if int(sub) < len(nested) {
		de.Detail = nested[sub]
	} else {
		de.Detail = fmt.Sprintf("%d", sub)
	}
	return de
}

// EncodeDispatchError is the inverse of the dispatch error decoder, used to
// build apply_extrinsic results.
func EncodeDispatchError(de *DispatchError) []byte {
	if de.Module != nil {
		return append([]byte{dispatchModule, de.Module.Index}, de.Module.Error[:]...)
	}
	for i, name := range dispatchErrorNames {
		if name != de.Name {
			continue
		}
		out := []byte{byte(i)}
		for _, nested := range [][]string{tokenErrorNames, arithmeticErrorNames, transactionalErrorNames} {
			for j, n := range nested {
				if de.Detail != "" && n == de.Detail {
					return append(out, byte(j))
				}
			}
		}
		return out
	}
	return []byte{0}
}
