// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ux

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// NewTable returns a table writing to w with the given header row.
func NewTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	table.Header(row...)
	return table
}
