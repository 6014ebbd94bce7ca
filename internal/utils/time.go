package utils

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are tried in order by ParseTimestamp. The zone-less layouts
// match what an HTML datetime-local input submits
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an RFC 3339 timestamp, or a zone-less local datetime
// which is interpreted as UTC. The zero instant is rejected because it marks
// an unset time
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			if t.IsZero() {
				return time.Time{}, fmt.Errorf("invalid timestamp %q: the zero time is not a valid value", value)
			}
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: expected RFC 3339 (e.g. 2006-01-02T15:04:05Z)", value)
}

// NormalizeTimestamp converts t to UTC and truncates it to millisecond precision,
// the resolution of a BSON datetime
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FormatDuration formats a duration as whole days plus HH:MM:SS, e.g. "2 days 03:04:05"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := int(d / time.Second)
	return fmt.Sprintf("%d days %02d:%02d:%02d", days, hours, minutes, seconds)
}
