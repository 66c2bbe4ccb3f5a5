package ar

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value decoded leniently from upstream JSON. Numbers and
// numeric strings are accepted; anything else decodes to zero. Arithmetic on
// the embedded decimal is exact.
type Amount struct {
	decimal.Decimal
}

// NewAmount converts v, mapping NaN and infinities to zero.
func NewAmount(v float64) Amount {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}
	}
	return Amount{Decimal: decimal.NewFromFloat(v)}
}

// ParseAmount parses a plain or thousands-separated numeric string. Anything
// unparsable yields zero.
func ParseAmount(raw string) Amount {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return Amount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return Amount{Decimal: d}
}

// Float returns the nearest float64, for display and charts.
func (a Amount) Float() float64 {
	return a.InexactFloat64()
}

// UnmarshalJSON never fails; malformed values become zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		*a = Amount{}
		return nil
	}
	*a = ParseAmount(strings.Trim(string(raw), `"`))
	return nil
}

// MarshalJSON writes the exact value as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// Count is a whole number decoded leniently: numeric strings are accepted,
// fractions are truncated and anything else becomes zero.
type Count int

// UnmarshalJSON never fails.
func (c *Count) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		*c = 0
		return nil
	}
	*c = Count(ParseAmount(strings.Trim(string(raw), `"`)).IntPart())
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Date is a calendar timestamp decoded leniently. Unparsable input yields the
// zero value so callers can test IsZero instead of handling errors.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// ParseDate tries the accepted layouts in order and returns the zero Date on failure.
func ParseDate(raw string) Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Date{Time: t}
		}
	}
	return Date{}
}

// UnmarshalJSON never fails; malformed dates become zero.
func (d *Date) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		*d = Date{}
		return nil
	}
	*d = ParseDate(strings.Trim(string(raw), `"`))
	return nil
}

// MarshalJSON renders zero dates as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.Time.Format(time.RFC3339))), nil
}

// day truncates to the calendar day in the date's own location.
func (d Date) day() time.Time {
	y, m, dd := d.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, d.Location())
}
