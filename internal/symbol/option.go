package symbol

import (
	"strings"
	"time"

	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/numeric"
)

var optionMonths = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// ParseBybitOption parses "UNDERLYING-DDMMMYY-STRIKE-{C|P}[-USDT]",
// e.g. "BTC-27DEC24-65000-C" or "BTC-27DEC24-65000-C-USDT". Any
// deviation from the expected shape yields ok=false so the caller
// falls back to registering the symbol under its configured default
// instrument type.
func ParseBybitOption(sym string) (*model.OptionMeta, bool) {
	parts := strings.Split(sym, "-")
	if len(parts) != 4 && len(parts) != 5 {
		return nil, false
	}
	if len(parts) == 5 && parts[4] != "USDT" {
		return nil, false
	}

	expiry, ok := parseExpiry(parts[1])
	if !ok {
		return nil, false
	}

	strike, err := numeric.PriceFromDecimalString(parts[2])
	if err != nil {
		return nil, false
	}

	var side model.OptionSide
	switch parts[3] {
	case "C":
		side = model.OptionCall
	case "P":
		side = model.OptionPut
	default:
		return nil, false
	}

	return &model.OptionMeta{Strike: strike, Expiry: expiry, Side: side}, true
}

// parseExpiry parses the "DDMMMYY" segment, e.g. "27DEC24".
func parseExpiry(s string) (time.Time, bool) {
	if len(s) != 7 {
		return time.Time{}, false
	}
	dayStr, monStr, yearStr := s[0:2], s[2:5], s[5:7]

	day := 0
	for _, c := range dayStr {
		if c < '0' || c > '9' {
			return time.Time{}, false
		}
		day = day*10 + int(c-'0')
	}
	if day < 1 || day > 31 {
		return time.Time{}, false
	}

	month, ok := optionMonths[strings.ToUpper(monStr)]
	if !ok {
		return time.Time{}, false
	}

	year := 0
	for _, c := range yearStr {
		if c < '0' || c > '9' {
			return time.Time{}, false
		}
		year = year*10 + int(c-'0')
	}

	return time.Date(2000+year, month, day, 8, 0, 0, 0, time.UTC), true
}
