package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical textual form of a Date.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order when parsing source values.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// Date is a nullable point in time. The zero value is NullDate.
type Date struct {
	t     time.Time
	valid bool
}

// NullDate marks a date that is absent or failed to parse.
var NullDate = Date{}

// NewDate wraps t as a valid Date normalised to UTC.
func NewDate(t time.Time) Date {
	return Date{t: t.UTC(), valid: true}
}

// MustDate parses a YYYY-MM-DD literal and panics on failure. Intended for
// tests and constant tables.
func MustDate(value string) Date {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		panic(fmt.Sprintf("domain: invalid date %q: %v", value, err))
	}
	return NewDate(t)
}

// ParseDate parses value using the supported layouts. Values that do not
// parse yield NullDate with ok=false; callers recover locally.
func ParseDate(value string) (Date, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return NullDate, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return NewDate(t), true
		}
	}
	return NullDate, false
}

// Valid reports whether the date carries a value.
func (d Date) Valid() bool { return d.valid }

// Time returns the wrapped time and whether it is valid.
func (d Date) Time() (time.Time, bool) { return d.t, d.valid }

// Before reports whether d is strictly before t. Null dates never compare.
func (d Date) Before(t time.Time) bool { return d.valid && d.t.Before(t) }

// After reports whether d is strictly after t. Null dates never compare.
func (d Date) After(t time.Time) bool { return d.valid && d.t.After(t) }

// AtOrAfter reports d >= t; false for null dates.
func (d Date) AtOrAfter(t time.Time) bool { return d.valid && !d.t.Before(t) }

// AtOrBefore reports d <= t; false for null dates.
func (d Date) AtOrBefore(t time.Time) bool { return d.valid && !d.t.After(t) }

// String renders the date as YYYY-MM-DD, or an empty string when null.
func (d Date) String() string {
	if !d.valid {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON encodes null dates as JSON null.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts null or any supported layout. Unparseable strings
// decode to NullDate, mirroring the loader's tolerance.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = NullDate
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("domain: date must be a string or null: %w", err)
	}
	*d, _ = ParseDate(raw)
	return nil
}
