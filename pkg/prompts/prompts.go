// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package prompts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/dotcli/pkg/units"
	"github.com/manifoldco/promptui"
)

const (
	Yes = "Yes"
	No  = "No"

	Done   = "Done"
	Cancel = "Cancel"
)

var errEmptyString = errors.New("string cannot be empty")

// promptUIRunner is a variable for testing purposes to allow mocking prompt.Run()
var promptUIRunner = func(prompt promptui.Prompt) (string, error) {
	return prompt.Run()
}

// promptUISelectRunner is a variable for testing purposes to allow mocking select.Run()
var promptUISelectRunner = func(sel promptui.Select) (int, string, error) {
	return sel.Run()
}

type Prompter interface {
	CaptureYesNo(promptStr string) (bool, error)
	CaptureNoYes(promptStr string) (bool, error)
	CaptureList(promptStr string, options []string) (string, error)
	CaptureIndex(promptStr string, options []any) (int, error)
	CaptureString(promptStr string) (string, error)
	CaptureStringAllowEmpty(promptStr string) (string, error)
	CaptureValidatedString(promptStr string, validator func(string) error) (string, error)
	// CapturePassword reads a masked secret
	CapturePassword(promptStr string) (string, error)
	// CaptureEmail accepts an empty answer for optional fields
	CaptureEmail(promptStr string) (string, error)
	CaptureAddress(promptStr string) (string, error)
	CaptureAmount(promptStr string, decimals uint8) (*uint256.Int, error)
	CaptureEndpoint(promptStr string) (string, error)
}

type realPrompter struct{}

// NewPrompter returns a prompter backed by promptui
func NewPrompter() Prompter {
	return &realPrompter{}
}

func yesNoBase(promptStr string, orderedOptions []string) (bool, error) {
	prompt := promptui.Select{
		Label: promptStr,
		Items: orderedOptions,
	}

	_, decision, err := promptUISelectRunner(prompt)
	if err != nil {
		return false, err
	}
	return decision == Yes, nil
}

func (*realPrompter) CaptureYesNo(promptStr string) (bool, error) {
	return yesNoBase(promptStr, []string{Yes, No})
}

func (*realPrompter) CaptureNoYes(promptStr string) (bool, error) {
	return yesNoBase(promptStr, []string{No, Yes})
}

func (*realPrompter) CaptureList(promptStr string, options []string) (string, error) {
	prompt := promptui.Select{
		Label: promptStr,
		Items: options,
	}
	_, listDecision, err := promptUISelectRunner(prompt)
	if err != nil {
		return "", err
	}
	return listDecision, nil
}

func (*realPrompter) CaptureIndex(promptStr string, options []any) (int, error) {
	prompt := promptui.Select{
		Label: promptStr,
		Items: options,
	}

	listIndex, _, err := promptUISelectRunner(prompt)
	if err != nil {
		return 0, err
	}
	return listIndex, nil
}

func (*realPrompter) CaptureString(promptStr string) (string, error) {
	prompt := promptui.Prompt{
		Label: promptStr,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errEmptyString
			}
			return nil
		},
	}
	return promptUIRunner(prompt)
}

func (*realPrompter) CaptureStringAllowEmpty(promptStr string) (string, error) {
	return promptUIRunner(promptui.Prompt{Label: promptStr})
}

func (*realPrompter) CaptureValidatedString(promptStr string, validator func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    promptStr,
		Validate: validator,
	}
	return promptUIRunner(prompt)
}

func (*realPrompter) CapturePassword(promptStr string) (string, error) {
	prompt := promptui.Prompt{
		Label: promptStr,
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password cannot be empty")
			}
			return nil
		},
	}
	return promptUIRunner(prompt)
}

func (*realPrompter) CaptureEmail(promptStr string) (string, error) {
	prompt := promptui.Prompt{
		Label:    promptStr,
		Validate: validateOptionalEmail,
	}
	str, err := promptUIRunner(prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(str), nil
}

func (*realPrompter) CaptureAddress(promptStr string) (string, error) {
	prompt := promptui.Prompt{
		Label:    promptStr,
		Validate: ValidateAddress,
	}
	addr, err := promptUIRunner(prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(addr), nil
}

func (*realPrompter) CaptureAmount(promptStr string, decimals uint8) (*uint256.Int, error) {
	prompt := promptui.Prompt{
		Label:    promptStr,
		Validate: amountValidator(decimals),
	}
	amountStr, err := promptUIRunner(prompt)
	if err != nil {
		return nil, err
	}
	return units.ParseAmount(amountStr, decimals)
}

func (*realPrompter) CaptureEndpoint(promptStr string) (string, error) {
	prompt := promptui.Prompt{
		Label:    promptStr,
		Validate: ValidateEndpoint,
	}
	endpoint, err := promptUIRunner(prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(endpoint), nil
}

// CaptureListDecision asks for items one at a time until the user picks
// Done or Cancel. Duplicates are skipped.
func CaptureListDecision[T comparable](
	prompter Prompter,
	prompt string,
	capture func(prompt string) (T, error),
	capturePrompt string,
	label string,
) ([]T, bool, error) {
	const add = "Add"
	finalList := []T{}
	for {
		listDecision, err := prompter.CaptureList(prompt, []string{add, Done, Cancel})
		if err != nil {
			return nil, false, err
		}
		switch listDecision {
		case add:
			elem, err := capture(capturePrompt)
			if err != nil {
				return nil, false, err
			}
			if contains(finalList, elem) {
				fmt.Println(label + " already in list")
				continue
			}
			finalList = append(finalList, elem)
		case Done:
			return finalList, false, nil
		case Cancel:
			return nil, true, nil
		default:
			return nil, false, errors.New("unexpected option")
		}
	}
}

func contains[T comparable](list []T, element T) bool {
	for _, val := range list {
		if val == element {
			return true
		}
	}
	return false
}
