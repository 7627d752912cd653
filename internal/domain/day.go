package domain

import "time"

// DayFormat is the canonical layout for day buckets and episode dates.
const DayFormat = "2006-01-02"

// DayOf truncates a timestamp to its UTC calendar date.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a day bucket as YYYY-MM-DD.
func FormatDay(day time.Time) string {
	return day.UTC().Format(DayFormat)
}

// ParseDay parses a YYYY-MM-DD string into a UTC day bucket.
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(DayFormat, value, time.UTC)
}
