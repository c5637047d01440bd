// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prompts

import (
	"errors"
	"fmt"
	"strings"
)

// MissingOpt describes a required option that was not provided.
type MissingOpt struct {
	Flag   string // e.g., "--to"
	Env    string // optional, e.g., "DOTCLI_ACCOUNT"
	Prompt string // label used for interactive prompts
	Note   string // optional additional context
}

// MissingError lists every missing option and points at --help.
func MissingError(cmd string, missing []MissingOpt) error {
	if len(missing) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("missing required options:\n")
	for _, m := range missing {
		if m.Env != "" {
			fmt.Fprintf(&b, "  %s (or %s)", m.Flag, m.Env)
		} else {
			fmt.Fprintf(&b, "  %s", m.Flag)
		}
		if m.Note != "" {
			fmt.Fprintf(&b, " - %s", m.Note)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nrun '%s --help' to see all options", cmd)
	return errors.New(b.String())
}

// Validator collects required options and fills the missing ones by
// prompting, or fails with MissingError when prompting is not possible.
type Validator struct {
	cmd     string
	missing []MissingOpt
	values  []*string
}

func NewValidator(cmd string) *Validator {
	return &Validator{cmd: cmd}
}

// Require marks a value as required. If empty, adds to missing list.
func (v *Validator) Require(target *string, opt MissingOpt) *Validator {
	if strings.TrimSpace(*target) == "" {
		v.missing = append(v.missing, opt)
		v.values = append(v.values, target)
	}
	return v
}

// Resolve calls promptFn for each missing option. A prompter that refuses
// to prompt turns into the full MissingError.
func (v *Validator) Resolve(promptFn func(MissingOpt) (string, error)) error {
	for i, m := range v.missing {
		val, err := promptFn(m)
		if errors.Is(err, ErrNonInteractive) {
			return MissingError(v.cmd, v.missing)
		}
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", m.Flag, err)
		}
		*v.values[i] = val
	}
	return nil
}
