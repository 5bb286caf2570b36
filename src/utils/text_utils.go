package utils

import (
	"strings"
	"unicode"
)

// SpreadsheetText makes free text safe to place in a workbook cell. Control characters
// other than tab and newline are dropped, and text that a spreadsheet would read as a
// formula gets a leading quote.
func SpreadsheetText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' {
			return r
		}
		return -1
	}, s)
	trimmed := strings.TrimSpace(s)
	if trimmed != "" {
		switch trimmed[0] {
		case '=', '+', '-', '@':
			return "'" + s
		}
	}
	return s
}
