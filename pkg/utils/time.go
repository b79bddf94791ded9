package utils

import (
	"fmt"
	"time"
)

// FormatDuration formats duration in human-readable form for reports
// and log output.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := d / time.Minute
		seconds := (d % time.Minute) / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	return fmt.Sprintf("%dh%dm", hours, minutes)
}

// ParseDurationSafe parses a duration string, falling back to a default.
func ParseDurationSafe(s string, defaultDuration time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultDuration
	}
	return d
}

// DayKey returns the calendar-day key (YYYY-MM-DD) used to group the
// quality trend.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
