package request

import (
	"strings"

	"github.com/shopspring/decimal"
)

// The three half-day tokens accepted on submission. Anything else is read
// as a plain number.
var halfDayTokens = map[string]struct{}{
	"HALF_DAY":    {},
	"HALF_DAY_AM": {},
	"HALF_DAY_PM": {},
}

var halfDay = decimal.New(5, -1) // 0.5

func IsHalfDayToken(raw string) bool {
	_, ok := halfDayTokens[strings.ToUpper(strings.TrimSpace(raw))]
	return ok
}

// ParseDuration normalizes a raw duration value to half-day resolution.
// Half-day tokens map to 0.5, numeric strings are parsed as-is, and
// unparsable values yield 0. It never fails: the result is only used for
// arithmetic and display, the raw value is kept alongside it.
func ParseDuration(raw string) decimal.Decimal {
	if IsHalfDayToken(raw) {
		return halfDay
	}

	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DurationDisplay keeps the original token for display text and falls back
// to the normalized number otherwise.
func DurationDisplay(raw string, d decimal.Decimal) string {
	if IsHalfDayToken(raw) {
		return strings.ToUpper(strings.TrimSpace(raw))
	}
	return d.String()
}

func IsHalfDay(d decimal.Decimal) bool {
	return d.Equal(halfDay)
}
