// Package numeric implements fixed-point value types used throughout the
// connectors for prices, quantities and volumes. All three share the same
// underlying representation (a signed 64-bit integer scaled by 1e8) so the
// parsing and formatting rules only need to be written once.
package numeric

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the fixed-point scale shared by Price, Quantity and Volume: one
// unit of raw value equals 1e-8 of the represented decimal value.
const Scale = 100_000_000

// fixed is the shared representation behind Price, Quantity and Volume. It
// is not exported; each public type is a distinct named wrapper so the
// compiler keeps them from being accidentally mixed.
type fixed int64

func fixedFromRaw(raw int64) fixed { return fixed(raw) }

// fixedFromDouble rounds x*Scale to the nearest integer, ties to even, matching
// the reference implementation's from_double semantics.
func fixedFromDouble(x float64) fixed {
	scaled := x * float64(Scale)
	return fixed(roundHalfEven(scaled))
}

func roundHalfEven(x float64) int64 {
	floor := math.Floor(x)
	diff := x - floor
	switch {
	case diff < 0.5:
		return int64(floor)
	case diff > 0.5:
		return int64(floor) + 1
	default:
		// exactly halfway: round to the even neighbor
		if int64(floor)%2 == 0 {
			return int64(floor)
		}
		return int64(floor) + 1
	}
}

// fixedFromDecimalString parses a decimal string using shopspring/decimal so
// arbitrary-precision inputs (more digits than a float64 can hold without
// error) round-trip exactly, then projects onto the 1e8 scale with
// round-half-even.
func fixedFromDecimalString(s string) (fixed, error) {
	if s == "" {
		return 0, fmt.Errorf("numeric: empty decimal string")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("numeric: invalid decimal %q: %w", s, err)
	}
	scaled := d.Mul(decimal.New(Scale, 0))
	if scaled.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || scaled.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("numeric: overflow parsing %q", s)
	}
	rounded := scaled.Round(0)
	// decimal.Round uses round-half-away-from-zero; re-derive ties with
	// round-half-even against the exact fractional remainder instead.
	frac := scaled.Sub(scaled.Truncate(0))
	if frac.Abs().Equal(decimal.NewFromFloat(0.5)) {
		truncated := scaled.Truncate(0)
		iv := truncated.IntPart()
		if iv%2 != 0 {
			if scaled.Sign() >= 0 {
				iv++
			} else {
				iv--
			}
			return fixed(iv), nil
		}
		return fixed(iv), nil
	}
	return fixed(rounded.IntPart()), nil
}

func (f fixed) raw() int64 { return int64(f) }

func (f fixed) toDouble() float64 { return float64(f) / float64(Scale) }

// toString renders the canonical decimal form: no trailing zeros, no
// trailing dot, and no exponent notation.
func (f fixed) toString() string {
	neg := f < 0
	v := int64(f)
	if neg {
		v = -v
	}
	whole := v / Scale
	frac := v % Scale

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(whole, 10))
	if frac == 0 {
		return b.String()
	}

	fracStr := strconv.FormatInt(frac, 10)
	fracStr = strings.Repeat("0", 8-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		return b.String()
	}
	b.WriteByte('.')
	b.WriteString(fracStr)
	return b.String()
}
