// Package types provides common types used across the escrow engine.
package types

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// ErrOverflow is returned when a checked arithmetic operation leaves the
// representable range. Callers must treat it as fatal for the enclosing
// operation; amounts never wrap or saturate.
var ErrOverflow = errors.New("types: arithmetic overflow")

// BpsDenominator is the basis-point scale used for all ratio parameters
// (collateral ratios, insurance coefficients).
const BpsDenominator = 10_000

// Amount is a token quantity in the smallest asset unit.
// All arithmetic is integer-only and overflow-checked.
type Amount uint64

// MaxAmount is the largest representable Amount.
const MaxAmount = Amount(math.MaxUint64)

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// CheckedAdd returns a + b, or ErrOverflow if the sum wraps.
func (a Amount) CheckedAdd(b Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return Amount(sum), nil
}

// CheckedSub returns a - b, or ErrOverflow if b exceeds a.
func (a Amount) CheckedSub(b Amount) (Amount, error) {
	diff, borrow := bits.Sub64(uint64(a), uint64(b), 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%w: %d - %d", ErrOverflow, a, b)
	}
	return Amount(diff), nil
}

// MulBps returns trunc(a * bps / 10_000) using a 128-bit intermediate,
// or ErrOverflow if the truncated quotient exceeds 64 bits.
func (a Amount) MulBps(bps uint32) (Amount, error) {
	return a.mulDiv(uint64(bps), BpsDenominator, false)
}

// CeilMulBps returns ceil(a * bps / 10_000) using a 128-bit intermediate,
// or ErrOverflow if the rounded quotient exceeds 64 bits.
func (a Amount) CeilMulBps(bps uint32) (Amount, error) {
	return a.mulDiv(uint64(bps), BpsDenominator, true)
}

// mulDiv computes a*mul/div with optional ceiling rounding.
func (a Amount) mulDiv(mul, div uint64, ceil bool) (Amount, error) {
	hi, lo := bits.Mul64(uint64(a), mul)
	// bits.Div64 panics when the quotient does not fit in 64 bits.
	if hi >= div {
		return 0, fmt.Errorf("%w: %d * %d / %d", ErrOverflow, a, mul, div)
	}
	quo, rem := bits.Div64(hi, lo, div)
	if ceil && rem != 0 {
		if quo == math.MaxUint64 {
			return 0, fmt.Errorf("%w: %d * %d / %d", ErrOverflow, a, mul, div)
		}
		quo++
	}
	return Amount(quo), nil
}

// Min returns the smaller of two amounts.
func (a Amount) Min(b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two amounts.
func (a Amount) Max(b Amount) Amount {
	if a > b {
		return a
	}
	return b
}

// Clamp bounds a into [lo, hi]. lo must not exceed hi.
func (a Amount) Clamp(lo, hi Amount) Amount {
	return a.Max(lo).Min(hi)
}

// String returns the decimal representation of the raw unit count.
func (a Amount) String() string { return fmt.Sprintf("%d", uint64(a)) }
