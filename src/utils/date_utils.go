package utils

import (
	"time"
)

// ISODateFormat is the canonical stored form of every record date.
const ISODateFormat = "2006-01-02"

// Today returns the current local date in ISODateFormat.
func Today() string {
	return time.Now().Format(ISODateFormat)
}

// ParseISODate parses a canonical YYYY-MM-DD date.
func ParseISODate(dateStr string) (time.Time, error) {
	return time.Parse(ISODateFormat, dateStr)
}

// BackupTimestamp formats t the way backup file suffixes are written.
func BackupTimestamp(t time.Time) string {
	return t.Format("2006-01-02_15-04-05.000")
}
