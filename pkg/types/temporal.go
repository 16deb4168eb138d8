// Package types provides the calendar types shared by the law-history
// pipeline: adoption dates, government terms and ministerial tenures are all
// day-granular and carry no time of day.
package types

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Date represents a calendar date without time component.
// The zero value means "no date"; use IsZero to test for it.
type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

// dateLayouts are the formats accepted by ParseDate, in the order tried.
// PISRS and the curated minister data use ISO dates; the register CSV dumps
// and older scraped pages use the Slovenian dotted forms.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.06",
	"02.01.2006",
	"2.1.2006",
}

// ParseDate parses an ISO (YYYY-MM-DD) or dotted (DD.MM.YY, DD.MM.YYYY)
// calendar date. A blank string or the literal "null" yields the zero Date
// and no error.
func ParseDate(value string) (Date, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "null" || trimmed == "~" {
		return Date{}, nil
	}

	// PISRS occasionally returns full timestamps; keep the date part.
	if len(trimmed) > 10 && trimmed[4] == '-' {
		trimmed = trimmed[:10]
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return FromTime(parsed), nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", value)
}

// MustParseDate is like ParseDate but panics on error. Intended for tests and
// package-level fixtures.
func MustParseDate(value string) Date {
	parsed, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return parsed
}

// ToTime converts a Date to a time.Time at midnight UTC.
func (d Date) ToTime() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// FromTime creates a Date from a time.Time.
func FromTime(t time.Time) Date {
	return Date{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
	}
}

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String returns the ISO form, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(d.Month - other.Month)
	default:
		return sign(d.Day - other.Day)
	}
}

// Before returns true if d is before other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// After returns true if d is after other.
func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

// Equal returns true if d equals other.
func (d Date) Equal(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// BeforeOrEqual returns true if d is before or equal to other.
func (d Date) BeforeOrEqual(other Date) bool {
	return d.Compare(other) <= 0
}

// AfterOrEqual returns true if d is after or equal to other.
func (d Date) AfterOrEqual(other Date) bool {
	return d.Compare(other) >= 0
}

// Between reports whether d lies in the closed interval [start, end].
// Both boundaries count as inside.
func (d Date) Between(start, end Date) bool {
	return d.AfterOrEqual(start) && d.BeforeOrEqual(end)
}

// UnmarshalYAML accepts any format understood by ParseDate.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", node.Line)
	}
	// Unquoted ISO dates resolve to !!timestamp; the raw text is what we want.
	parsed, err := ParseDate(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = parsed
	return nil
}

// MarshalYAML writes the ISO form.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalJSON accepts a JSON string in any format understood by ParseDate,
// or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON writes the ISO form as a JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// DateRange is a closed interval of calendar dates. A zero boundary means the
// boundary is unknown.
type DateRange struct {
	Start Date
	End   Date
}

// IsBounded reports whether both boundaries are known.
func (r DateRange) IsBounded() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Contains reports whether date lies in the range, inclusive on both ends.
// A range with an unknown boundary contains nothing.
func (r DateRange) Contains(date Date) bool {
	return r.IsBounded() && date.Between(r.Start, r.End)
}

// String formats the range as "start - end".
func (r DateRange) String() string {
	return r.Start.String() + " - " + r.End.String()
}

func sign(value int) int {
	switch {
	case value < 0:
		return -1
	case value > 0:
		return 1
	default:
		return 0
	}
}
