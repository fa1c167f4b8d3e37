package numeric

import (
	"strconv"
	"strings"
)

// SafeParseDouble parses s as a float64, rejecting empty, non-numeric,
// partially-consumed, or overflowing input. strconv.ParseFloat already
// rejects all but the "partial parse" case (it never does partial parses),
// so the extra work here is just guarding empty input and hex/inf/nan forms
// that strconv accepts but the wire formats we decode never legitimately use.
func SafeParseDouble(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if strings.ContainsAny(s, "xXiInN") {
		// reject hex floats ("0x1p0") and Inf/NaN spellings
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseInt64 parses s as a base-10 (or given base) int64, rejecting empty or
// partially-consumed input.
func ParseInt64(s string, base int) (int64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseUint64 parses s as a base-10 (or given base) uint64, rejecting empty
// or partially-consumed input.
func ParseUint64(s string, base int) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
