// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ux

import (
	"fmt"
	"io"
	"strconv"

	"github.com/luxfi/dotcli/pkg/blockwatch"
	"github.com/luxfi/dotcli/pkg/dapp"
	"github.com/luxfi/dotcli/pkg/wallet"
)

// PrintAccounts lists accounts, marking the selected one with "*".
func PrintAccounts(w io.Writer, accounts []wallet.Account, selected int) error {
	table := NewTable(w, "", "#", "Name", "Address")
	for i, a := range accounts {
		mark := ""
		if i == selected {
			mark = "*"
		}
		if err := table.Append([]string{mark, strconv.Itoa(i), a.Name, a.Address}); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintView renders the selected account's state as a two-column table.
func PrintView(w io.Writer, v dapp.ViewState) error {
	table := NewTable(w, "Field", "Value")
	rows := [][]string{
		{"Wallet", v.Provider},
		{"Chain", v.RelayChain},
	}
	if a, ok := v.Account(); ok {
		rows = append(rows,
			[]string{"Account", a.Name},
			[]string{"Address", a.Address},
		)
	}
	rows = append(rows, []string{"Balance", v.BalanceText()})
	rows = append(rows, identityRows(v.Identity)...)
	if v.LastTx != nil {
		rows = append(rows, []string{"Last " + v.LastTx.Op, v.LastTx.Status.String()})
	}
	if v.Err != nil {
		rows = append(rows, []string{"Error", v.Err.Error()})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func identityRows(s dapp.IdentityState) [][]string {
	switch s.Kind {
	case dapp.IdentityNotFetched:
		return [][]string{{"Identity", "-"}}
	case dapp.IdentityNone:
		return [][]string{{"Identity", "none"}}
	}
	id := s.Identity
	return [][]string{
		{"Display name", id.Display.String()},
		{"Email", id.Email.String()},
		{"Discord", id.Discord.String()},
	}
}

// PrintStanding renders the heights each watched chain has reached.
func PrintStanding(w io.Writer, s blockwatch.Standing) error {
	table := NewTable(w, "Chain", "Latest", "Highest", "Lowest")
	for _, c := range s.Chains {
		if err := table.Append([]string{
			c.Chain,
			ConvertToStringWithThousandSeparator(c.Latest),
			ConvertToStringWithThousandSeparator(c.Highest),
			ConvertToStringWithThousandSeparator(c.Lowest),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Highest chain: %s | Lowest chain: %s\n", s.HighestChain, s.LowestChain)
	return err
}
