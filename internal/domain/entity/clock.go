package entity

import "time"

// DateLayout is the calendar date format used for CSV files and API payloads.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Clock supplies the current time for expiry checks.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant. Used to pin "today" in tests and reports.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// DateOf drops the time of day, keeping the calendar date as seen in t's location.
// The result is midnight UTC so day differences never cross a DST shift.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the clock's current calendar date.
func Today(c Clock) time.Time {
	if c == nil {
		c = SystemClock{}
	}
	return DateOf(c.Now())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween counts calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int((DateOf(b).Unix() - DateOf(a).Unix()) / secondsPerDay)
}
