package core

import (
	"strings"
	"time"
)

// Layouts accepted for timestamps without an explicit zone. They are
// interpreted in the caller's location.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats produced by the store and the
// UI, reading zone-less values in time.Local. ok is false for empty or
// unparseable input.
func ParseTimestamp(s string) (time.Time, bool) {
	return ParseTimestampIn(s, time.Local)
}

// ParseTimestampIn is ParseTimestamp with zone-less values read in loc.
// A nil loc means time.Local.
func ParseTimestampIn(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t in the wire format used for payloads.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
