package core

import (
	"fmt"
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// JSON marshaling for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}

// DayFormat is the canonical wire format for calendar days.
const DayFormat = "2006-01-02"

// Day represents a single calendar day. The time-of-day component is
// always UTC midnight, so Day values compare and subtract cleanly.
type Day struct {
	t time.Time
}

// NewDay creates a day from calendar components.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates a time.Time to its calendar day.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

// ParseDay parses a day in the canonical 2006-01-02 format.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Time returns the underlying time.Time (UTC midnight).
func (d Day) Time() time.Time { return d.t }

// String returns the canonical 2006-01-02 representation.
func (d Day) String() string { return d.t.Format(DayFormat) }

// IsZero checks if the day is the zero value.
func (d Day) IsZero() bool { return d.t.IsZero() }

// Year returns the calendar year.
func (d Day) Year() int { return d.t.Year() }

// Month returns the calendar month as 1-12.
func (d Day) Month() int { return int(d.t.Month()) }

// ISOWeek returns the ISO 8601 week number.
func (d Day) ISOWeek() int {
	_, week := d.t.ISOWeek()
	return week
}

// DayOfYear returns the ordinal day within the year, 1-366.
func (d Day) DayOfYear() int { return d.t.YearDay() }

// Weekday returns the day of week.
func (d Day) Weekday() time.Weekday { return d.t.Weekday() }

// AddDays returns the day shifted by n calendar days.
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// Before returns true if d is before u
func (d Day) Before(u Day) bool { return d.t.Before(u.t) }

// After returns true if d is after u
func (d Day) After(u Day) bool { return d.t.After(u.t) }

// Equal returns true if d and u are the same calendar day.
func (d Day) Equal(u Day) bool { return d.t.Equal(u.t) }

// DaysSince returns the number of whole days from u to d (negative when
// d precedes u).
func (d Day) DaysSince(u Day) int {
	return int(d.t.Sub(u.t) / (24 * time.Hour))
}

// MarshalJSON encodes the day in the canonical format.
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Day) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid day literal %s", s)
	}
	parsed, err := ParseDay(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DayRange is an inclusive span of calendar days.
type DayRange struct {
	Start Day `json:"start"`
	End   Day `json:"end"`
}

// NewDayRange creates an inclusive day range.
func NewDayRange(start, end Day) DayRange {
	return DayRange{Start: start, End: end}
}

// IsValid reports whether the range has both endpoints and End does not
// precede Start.
func (r DayRange) IsValid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// Contains reports whether d falls inside the inclusive range.
func (r DayRange) Contains(d Day) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Len returns the inclusive day count, 0 for invalid ranges.
func (r DayRange) Len() int {
	if !r.IsValid() {
		return 0
	}
	return r.End.DaysSince(r.Start) + 1
}

// Days materializes every day of the range in order.
func (r DayRange) Days() []Day {
	n := r.Len()
	if n == 0 {
		return nil
	}
	days := make([]Day, n)
	for i := 0; i < n; i++ {
		days[i] = r.Start.AddDays(i)
	}
	return days
}

// String returns "start..end".
func (r DayRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}
