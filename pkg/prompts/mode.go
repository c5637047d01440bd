// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package prompts

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Environment variable names for non-interactive mode.
const (
	// EnvNonInteractive forces non-interactive mode.
	// Set to "1", "true", "yes", or "on" to enable.
	EnvNonInteractive = "DOTCLI_NON_INTERACTIVE"

	// EnvCI is a common CI environment variable.
	EnvCI = "CI"
)

// isTruthyEnv accepts 1, true, t, yes, y, on (case-insensitive)
func isTruthyEnv(key string) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// stdinIsTTY is a variable so tests can fake a terminal
var stdinIsTTY = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsInteractive returns true if prompting is allowed: stdin is a TTY and
// neither DOTCLI_NON_INTERACTIVE nor CI is truthy.
func IsInteractive() bool {
	if isTruthyEnv(EnvNonInteractive) || isTruthyEnv(EnvCI) {
		return false
	}
	return stdinIsTTY()
}

// NewPrompterForMode returns a prompter that fails fast when the flag is
// set or the session is not interactive.
func NewPrompterForMode(nonInteractiveFlag bool) Prompter {
	if nonInteractiveFlag || !IsInteractive() {
		return NewNonInteractivePrompter()
	}
	return NewPrompter()
}
