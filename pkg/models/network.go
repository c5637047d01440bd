// Copyright (C) 2022, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"fmt"
	"strings"
)

type Network int64

const (
	Undefined Network = iota
	Westend
	WestendPeople
	Local
)

// CallIndex addresses a dispatchable as (pallet index, call index).
type CallIndex [2]byte

func (c CallIndex) String() string {
	return fmt.Sprintf("%d.%d", c[0], c[1])
}

// Chain is the static configuration of one target chain.
type Chain struct {
	Name       string
	Endpoint   string
	Decimals   uint8
	Symbol     string
	SS58Prefix uint16

	TransferKeepAlive CallIndex
	SetIdentity       CallIndex
	// HasIdentity is true on chains that host the identity pallet.
	HasIdentity bool
	// MetadataHash is true on runtimes carrying the CheckMetadataHash extension.
	MetadataHash bool
}

func (s Network) String() string {
	switch s {
	case Westend:
		return "westend"
	case WestendPeople:
		return "westend-people"
	case Local:
		return "local"
	}
	return "unknown"
}

func NetworkFromString(s string) Network {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case Westend.String(), "wnd":
		return Westend
	case WestendPeople.String(), "people":
		return WestendPeople
	case Local.String(), "dev":
		return Local
	}
	return Undefined
}

// AllNetworks lists every network with a built-in configuration.
func AllNetworks() []Network {
	return []Network{Westend, WestendPeople, Local}
}

// Chain returns the built-in configuration for the network.
func (s Network) Chain() (Chain, error) {
	switch s {
	case Westend:
		return Chain{
			Name:              "Westend",
			Endpoint:          "wss://westend-rpc.polkadot.io",
			Decimals:          12,
			Symbol:            "WND",
			SS58Prefix:        42,
			TransferKeepAlive: CallIndex{4, 3},
			MetadataHash:      true,
		}, nil
	case WestendPeople:
		return Chain{
			Name:              "Westend People",
			Endpoint:          "wss://westend-people-rpc.polkadot.io",
			Decimals:          12,
			Symbol:            "WND",
			SS58Prefix:        42,
			TransferKeepAlive: CallIndex{10, 3},
			SetIdentity:       CallIndex{50, 1},
			HasIdentity:       true,
			MetadataHash:      true,
		}, nil
	case Local:
		return Chain{
			Name:              "Local",
			Endpoint:          "ws://127.0.0.1:9944",
			Decimals:          12,
			Symbol:            "UNIT",
			SS58Prefix:        42,
			TransferKeepAlive: CallIndex{4, 3},
		}, nil
	}
	return Chain{}, fmt.Errorf("unsupported network %q", s.String())
}

// Endpoint returns the default node URL of the network.
func (s Network) Endpoint() string {
	c, err := s.Chain()
	if err != nil {
		return ""
	}
	return c.Endpoint
}

// IdentityNetwork is the network holding identities for accounts of s.
func (s Network) IdentityNetwork() Network {
	switch s {
	case Westend, WestendPeople:
		return WestendPeople
	}
	return s
}
