// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ux

import (
	"fmt"
	"io"
	"os"

	"github.com/luxfi/dotcli/pkg/dapp"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

const statusSteps = 3

// IsTerminal reports whether w is a terminal the status bar can redraw on.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StatusBar shows a transaction moving through submitted, in block and
// finalized. Without a terminal it prints one line per status instead.
type StatusBar struct {
	w    io.Writer
	bar  *progressbar.ProgressBar
	last dapp.StatusKind
	seen bool
}

func NewStatusBar(w io.Writer, op string, tty bool) *StatusBar {
	s := &StatusBar{w: w}
	if !tty {
		return s
	}
	s.bar = progressbar.NewOptions(
		statusSteps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(fmt.Sprintf("[[cyan]]%s[[reset]]", op)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return s
}

func step(k dapp.StatusKind) int {
	switch k {
	case dapp.StatusSubmitted:
		return 1
	case dapp.StatusIncludedInBlock:
		return 2
	case dapp.StatusFinalized:
		return 3
	}
	return 0
}

// Update shows st. Repeated statuses of the same kind are shown once.
func (s *StatusBar) Update(st dapp.TransactionStatus) {
	if s.seen && st.Kind == s.last {
		return
	}
	s.seen, s.last = true, st.Kind
	if s.bar == nil {
		_, _ = fmt.Fprintf(s.w, "  %s\n", st)
		return
	}
	s.bar.Describe(st.String())
	if st.Kind == dapp.StatusFailed {
		_ = s.bar.Exit()
		_, _ = fmt.Fprintln(s.w)
		return
	}
	_ = s.bar.Set(step(st.Kind))
	if st.Terminal() {
		_ = s.bar.Finish()
		_, _ = fmt.Fprintln(s.w)
	}
}
