// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"github.com/luxfi/dotcli/pkg/units"
	"github.com/luxfi/dotcli/pkg/wallet"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseReady
	PhaseFailed
	PhaseTornDown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	case PhaseTornDown:
		return "torn down"
	}
	return "unknown"
}

type IdentityStateKind int

const (
	IdentityNotFetched IdentityStateKind = iota
	IdentityNone
	IdentityPresent
)

// IdentityState separates "not fetched yet" from "fetched, none registered".
type IdentityState struct {
	Kind     IdentityStateKind
	Identity *Identity
}

// TxState is the latest status of the most recent submission.
type TxState struct {
	Op     string
	Hash   string
	Status TransactionStatus
}

// ViewState is one immutable snapshot of everything a renderer shows.
// Values handed out by the controller must be treated as read-only.
type ViewState struct {
	Phase    Phase
	Provider string
	Accounts []wallet.Account
	// Selected indexes Accounts; -1 before the first selection.
	Selected int

	RelayChain    string
	IdentityChain string

	// Balance is nil until fetched.
	Balance  *units.Balance
	Identity IdentityState
	LastTx   *TxState

	// Err is the most recent failure of a background read or of Mount.
	Err error
}

// Account returns the selected account.
func (v ViewState) Account() (wallet.Account, bool) {
	if v.Selected < 0 || v.Selected >= len(v.Accounts) {
		return wallet.Account{}, false
	}
	return v.Accounts[v.Selected], true
}

// BalanceText is the display form of the balance, or "-" before it is known.
func (v ViewState) BalanceText() string {
	if v.Balance == nil {
		return "-"
	}
	return v.Balance.String()
}
