// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package keycmd

import (
	"errors"

	"github.com/luxfi/dotcli/pkg/key"
)

var errPasswordMismatch = errors.New("passwords do not match")

// capturePassword returns DOTCLI_KEY_PASSWORD when set, otherwise asks for
// it, twice when confirm is set.
func capturePassword(confirm bool) (string, error) {
	if p := key.GetPasswordFromEnv(); p != "" {
		return p, nil
	}
	password, err := app.Prompt.CapturePassword("Keystore password")
	if err != nil {
		return "", err
	}
	if !confirm {
		return password, nil
	}
	again, err := app.Prompt.CapturePassword("Repeat password")
	if err != nil {
		return "", err
	}
	if again != password {
		return "", errPasswordMismatch
	}
	return password, nil
}
