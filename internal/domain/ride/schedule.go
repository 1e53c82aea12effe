package ride

import (
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"
)

// ParseDate parses a YYYY-MM-DD travel date into a UTC midnight value.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, &ParseError{Field: "date", Value: s, Err: err}
	}
	return d, nil
}

// ParseClock accepts HH:MM or HH:MM:SS and returns the HH:MM:SS form.
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{ClockLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ClockLayout), nil
		}
	}
	return "", &ParseError{Field: "time", Value: s}
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Window returns the inclusive date range [from, to] where to is the calendar
// day reached by adding span to the date-only reference. Spans shorter than a
// day therefore collapse to the reference day itself.
func Window(ref time.Time, span time.Duration) (from, to time.Time) {
	from = DateOnly(ref)
	to = DateOnly(from.Add(span))
	return from, to
}
