// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prompts

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// ErrNonInteractive is returned when a prompt is attempted in non-interactive mode.
// Commands should catch this error and provide actionable guidance.
var ErrNonInteractive = errors.New("cannot prompt in non-interactive mode")

// NonInteractivePrompter implements Prompter but fails fast on any prompt attempt.
type NonInteractivePrompter struct{}

func NewNonInteractivePrompter() *NonInteractivePrompter {
	return &NonInteractivePrompter{}
}

func (*NonInteractivePrompter) fail(operation string) error {
	return fmt.Errorf("%w: %s - use flags to provide required values, or unset %s", ErrNonInteractive, operation, EnvNonInteractive)
}

func (p *NonInteractivePrompter) CaptureYesNo(promptStr string) (bool, error) {
	return false, p.fail(promptStr)
}

func (p *NonInteractivePrompter) CaptureNoYes(promptStr string) (bool, error) {
	return false, p.fail(promptStr)
}

func (p *NonInteractivePrompter) CaptureList(promptStr string, _ []string) (string, error) {
	return "", p.fail(promptStr)
}

func (p *NonInteractivePrompter) CaptureIndex(promptStr string, _ []any) (int, error) {
	return 0, p.fail(promptStr)
}

func (p *NonInteractivePrompter) CaptureString(promptStr string) (string, error) {
	return "", p.fail(promptStr)
}

func (p *NonInteractivePrompter) CaptureStringAllowEmpty(promptStr string) (string, error) {
	return "", p.fail(promptStr)
}

func (p *NonInteractivePrompter) CaptureValidatedString(promptStr string, _ func(string) error) (string, error) {
	return "", p.fail(promptStr)
}

func (p *NonInteractivePrompter) CapturePassword(promptStr string) (string, error) {
	return "", p.fail(promptStr)
}

func (p *NonInteractivePrompter) CaptureEmail(promptStr string) (string, error) {
	return "", p.fail(promptStr)
}

func (p *NonInteractivePrompter) CaptureAddress(promptStr string) (string, error) {
	return "", p.fail(promptStr)
}

func (p *NonInteractivePrompter) CaptureAmount(promptStr string, _ uint8) (*uint256.Int, error) {
	return nil, p.fail(promptStr)
}

func (p *NonInteractivePrompter) CaptureEndpoint(promptStr string) (string, error) {
	return "", p.fail(promptStr)
}

// Verify NonInteractivePrompter implements Prompter at compile time.
var _ Prompter = (*NonInteractivePrompter)(nil)
