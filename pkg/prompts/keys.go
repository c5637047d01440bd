// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package prompts

import (
	"errors"
	"fmt"
)

var errNoKeys = errors.New("no keys")

// CaptureKeyName asks which stored key to use for goal. A single key is
// chosen without asking.
func CaptureKeyName(prompter Prompter, goal string, keyNames []string) (string, error) {
	switch len(keyNames) {
	case 0:
		return "", errNoKeys
	case 1:
		return keyNames[0], nil
	}
	return prompter.CaptureList(fmt.Sprintf("Which key should be used to %s?", goal), keyNames)
}
