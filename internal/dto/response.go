package dto

import "time"

// TimeFormat is used for every timestamp rendered to clients.
const TimeFormat = time.RFC3339

// FormatTime renders t in TimeFormat, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}
