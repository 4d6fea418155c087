// Package calendar reduces due dates and timestamps to calendar-day keys.
// A key is the ISO date (YYYY-MM-DD); keys compare correctly as strings.
package calendar

import (
	"strings"
	"time"
)

const Layout = "2006-01-02"

// Key returns the calendar day of t in t's own location.
func Key(t time.Time) string {
	return t.Format(Layout)
}

// DateKey returns the calendar day of a stored date value, evaluated in loc.
// Plain ISO dates are returned as-is; RFC 3339 timestamps are converted to
// loc first. Empty or unparseable values report false.
func DateKey(value string, loc *time.Location) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if d, err := time.ParseInLocation(Layout, value, loc); err == nil {
		return Key(d), true
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return Key(ts.In(loc)), true
	}
	return "", false
}

// TimeKey returns the calendar day of a timestamp, evaluated in loc.
func TimeKey(t *time.Time, loc *time.Location) (string, bool) {
	if t == nil || t.IsZero() {
		return "", false
	}
	return Key(t.In(loc)), true
}

// ValidDate reports whether value is a well-formed ISO calendar date.
func ValidDate(value string) bool {
	_, err := time.Parse(Layout, value)
	return err == nil
}

// AddDays shifts a key by n days. It returns "" for a malformed key.
func AddDays(key string, n int) string {
	d, err := time.Parse(Layout, key)
	if err != nil {
		return ""
	}
	return Key(d.AddDate(0, 0, n))
}

// Parse turns a key back into midnight of that day in loc.
func Parse(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(Layout, key, loc)
}
