// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package prompts

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/luxfi/dotcli/pkg/chain"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/units"
)

// MaxIdentityFieldLen is the longest Raw value an identity field can hold.
const MaxIdentityFieldLen = 32

func validateOptionalEmail(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if _, err := mail.ParseAddress(input); err != nil {
		return err
	}
	return ValidateIdentityField(input)
}

// ValidateAddress accepts any well-formed SS58 address.
func ValidateAddress(input string) error {
	return ss58.Validate(strings.TrimSpace(input))
}

// ValidateEndpoint accepts ws:// and wss:// node URLs.
func ValidateEndpoint(input string) error {
	_, err := chain.ValidateEndpoint(input)
	return err
}

// ValidateIdentityField rejects values that do not fit a Raw identity field.
func ValidateIdentityField(input string) error {
	if n := len(strings.TrimSpace(input)); n > MaxIdentityFieldLen {
		return fmt.Errorf("value is %d bytes, at most %d allowed", n, MaxIdentityFieldLen)
	}
	return nil
}

// ValidateDisplayName requires a non-empty identity display name.
func ValidateDisplayName(input string) error {
	if strings.TrimSpace(input) == "" {
		return errEmptyString
	}
	return ValidateIdentityField(input)
}

func amountValidator(decimals uint8) func(string) error {
	return func(input string) error {
		amount, err := units.ParseAmount(input, decimals)
		if err != nil {
			return err
		}
		if amount.IsZero() {
			return fmt.Errorf("the amount must be bigger than zero")
		}
		return nil
	}
}
