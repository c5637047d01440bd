// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package units converts between on-chain minor units and human-scale
// decimal amounts. All arithmetic is integer arithmetic on 256-bit words;
// amounts are bounded to u128, the width of a Substrate balance.
package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// MaxDecimals is the largest exponent for which 10^decimals still fits
// comfortably alongside a u128 amount.
const MaxDecimals = 38

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountTooLarge = errors.New("amount exceeds u128")
	ErrTooManyDigits  = errors.New("amount has more fractional digits than the chain supports")
	ErrDecimals       = errors.New("unsupported decimals")

	maxUint128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))
)

// Balance is a free balance in minor units plus the chain's display exponent.
type Balance struct {
	Free     *uint256.Int
	Decimals uint8
	Symbol   string
}

// NewBalance copies free so later mutation of the argument cannot leak in.
func NewBalance(free *uint256.Int, decimals uint8, symbol string) Balance {
	if free == nil {
		free = new(uint256.Int)
	}
	return Balance{Free: free.Clone(), Decimals: decimals, Symbol: symbol}
}

// Display is the human-scale amount without symbol, e.g. "1.5".
func (b Balance) Display() string {
	return FormatBalance(b.Free, b.Decimals)
}

func (b Balance) String() string {
	if b.Symbol == "" {
		return b.Display()
	}
	return b.Display() + " " + b.Symbol
}

// Pow10 returns 10^decimals.
func Pow10(decimals uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
}

// FormatBalance renders raw minor units as an exact decimal string with
// trailing fractional zeros removed. A nil amount formats as "0".
func FormatBalance(raw *uint256.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	if decimals == 0 {
		return raw.Dec()
	}
	quo, rem := new(uint256.Int).DivMod(raw, Pow10(decimals), new(uint256.Int))
	if rem.IsZero() {
		return quo.Dec()
	}
	frac := rem.Dec()
	frac = strings.Repeat("0", int(decimals)-len(frac)) + frac
	return quo.Dec() + "." + strings.TrimRight(frac, "0")
}

// ParseAmount converts a human-scale decimal string such as "1.5" into
// minor units: integer part times 10^decimals plus the scaled fraction.
// Signs, exponents and separators are rejected. Trailing fractional zeros
// beyond the chain precision are accepted, other excess digits are not.
func ParseAmount(amount string, decimals uint8) (*uint256.Int, error) {
	if decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: %d", ErrDecimals, decimals)
	}
	amount = strings.TrimSpace(amount)
	intPart, fracPart, hasDot := strings.Cut(amount, ".")
	if hasDot && strings.Contains(fracPart, ".") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	fracPart = strings.TrimRight(fracPart, "0")
	if len(fracPart) > int(decimals) {
		return nil, fmt.Errorf("%w: %q allows %d", ErrTooManyDigits, amount, decimals)
	}

	whole := new(uint256.Int)
	if intPart != "" {
		var err error
		if whole, err = uint256.FromDecimal(intPart); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrAmountTooLarge, amount)
		}
	}
	scaled, overflow := new(uint256.Int).MulOverflow(whole, Pow10(decimals))
	if overflow {
		return nil, fmt.Errorf("%w: %q", ErrAmountTooLarge, amount)
	}

	if fracPart != "" {
		frac, err := uint256.FromDecimal(fracPart)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
		}
		frac.Mul(frac, Pow10(decimals-uint8(len(fracPart))))
		if _, overflow = scaled.AddOverflow(scaled, frac); overflow {
			return nil, fmt.Errorf("%w: %q", ErrAmountTooLarge, amount)
		}
	}

	if scaled.Gt(maxUint128) {
		return nil, fmt.Errorf("%w: %q", ErrAmountTooLarge, amount)
	}
	return scaled, nil
}

// MaxUint128 returns a fresh copy of 2^128-1.
func MaxUint128() *uint256.Int {
	return maxUint128.Clone()
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
