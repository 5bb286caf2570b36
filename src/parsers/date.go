// src/parsers/date.go
package parsers

import (
	"strings"

	"github.com/araddon/dateparse"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/utils"
)

// ParseDate accepts any reasonable written date ("3/5/2024", "March 5 2024",
// "2024-03-05") and returns it as YYYY-MM-DD. An empty entry becomes models.DefaultDate.
func ParseDate(text string) (string, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return models.DefaultDate, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return "", &models.ParseError{Field: "date", Value: text, Reason: "bad date format, try YYYY-MM-DD"}
	}
	return t.Format(utils.ISODateFormat), nil
}

// NormalizeDate returns the canonical date, or prior when text cannot be parsed.
func NormalizeDate(text, prior string) (string, error) {
	d, err := ParseDate(text)
	if err != nil {
		return prior, err
	}
	return d, nil
}
