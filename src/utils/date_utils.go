package utils

import (
	"log"
	"time"
)

const DefaultDateFormat = "2006-01-02"

// ParseDate parses a date string using the default format, falling
// back to RFC3339 for timestamped records.
// Logs an error and returns zero time if parsing fails.
func ParseDate(dateStr string) time.Time {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err == nil {
		return t
	}
	t, err = time.Parse(time.RFC3339, dateStr)
	if err != nil {
		log.Printf("Error parsing date '%s': %v. Returning zero time.", dateStr, err)
		return time.Time{}
	}
	return t
}
