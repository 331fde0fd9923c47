package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidItem is returned when an item violates its basic invariants
// (missing id, end before start).
var ErrInvalidItem = errors.New("invalid item")

const dateLayout = "2006-01-02"

// Date is a whole calendar day with no time or timezone semantics.
// The zero value is not a valid date; use IsZero to test for it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the normalized date for year/month/day. Out-of-range
// values roll over the same way time.Date does (e.g. Jan 32 -> Feb 1).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(dateLayout)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// AddDays returns d shifted by n days (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// DaysUntil returns the signed number of days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.Time().Sub(d.Time()).Hours() / 24)
}

// FirstOfMonth returns day 1 of d's month.
func (d Date) FirstOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// LastOfMonth returns the last day of d's month.
func (d Date) LastOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: DaysIn(d.Year, d.Month)}
}

// FormatDisplay renders d as "Jan 02, 2024".
func (d Date) FormatDisplay() string {
	return d.Time().Format("Jan 02, 2006")
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysIn returns the number of days in the given month of the proleptic
// Gregorian calendar, leap-year February included.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// InclusiveDays counts the days from start to end with both ends included.
func InclusiveDays(start, end Date) int {
	return start.DaysUntil(end) + 1
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Item is a dated work item shown on the timeline. Start and End are both
// included in its span.
type Item struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Start Date   `yaml:"start" json:"start"`
	End   Date   `yaml:"end" json:"end"`

	// Source identifies where the item came from (an ICS feed id); empty for
	// items loaded from an items file or created through the API.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
}

// Validate checks the id and date invariants of the item.
func (it Item) Validate() error {
	if strings.TrimSpace(it.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	}
	if it.Start.IsZero() || it.End.IsZero() {
		return fmt.Errorf("%w: %s: missing start or end date", ErrInvalidItem, it.ID)
	}
	if it.End.Before(it.Start) {
		return fmt.Errorf("%w: %s: end %s is before start %s", ErrInvalidItem, it.ID, it.End, it.Start)
	}
	return nil
}

// Duration is the inclusive number of days the item spans.
func (it Item) Duration() int {
	return InclusiveDays(it.Start, it.End)
}
