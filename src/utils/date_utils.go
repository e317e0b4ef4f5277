package utils

import (
	"log"
	"time"
)

const DefaultDateFormat = time.RFC3339

// ParseTimestamp parses an RFC3339 timestamp, falling back to a bare date.
// Logs an error and returns zero time if parsing fails.
func ParseTimestamp(value string) time.Time {
	t, err := time.Parse(DefaultDateFormat, value)
	if err == nil {
		return t
	}
	t, err = time.Parse("2006-01-02", value)
	if err != nil {
		log.Printf("Error parsing timestamp '%s': %v. Returning zero time.", value, err)
		return time.Time{}
	}
	return t
}
