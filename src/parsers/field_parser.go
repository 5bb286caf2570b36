// src/parsers/field_parser.go
package parsers

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/utils"
)

var maxAmount = decimal.NewFromInt(models.MaxAmount)

// ParseCount parses a bill or coin count. Only plain digits are accepted; an empty
// entry counts as zero.
func ParseCount(field, text string) (int64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &models.ParseError{Field: field, Value: text, Reason: "counts must be whole numbers"}
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n > models.MaxCount {
		return 0, &models.ParseError{Field: field, Value: text, Reason: "count is too large"}
	}
	return n, nil
}

// ParseCurrency parses a currency amount. Thousands separators are ignored so both the
// formatted ("1,234.50") and raw ("1234.50") forms are accepted.
func ParseCurrency(field, text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &models.ParseError{Field: field, Value: text, Reason: "not a valid amount"}
	}
	if d.IsNegative() {
		return 0, &models.ParseError{Field: field, Value: text, Reason: "amounts cannot be negative"}
	}
	if d.GreaterThan(maxAmount) {
		return 0, &models.ParseError{Field: field, Value: text, Reason: "amount is too large"}
	}
	return d.InexactFloat64(), nil
}

// FormatCount renders a count as a plain digit string.
func FormatCount(n int64) string {
	return strconv.FormatInt(n, 10)
}

// NormalizeCount applies the canonical display form of a count field. On failure the
// original text is returned unchanged together with the error so the field can be flagged.
func NormalizeCount(field, text string) (string, error) {
	n, err := ParseCount(field, text)
	if err != nil {
		return text, err
	}
	return FormatCount(n), nil
}

// NormalizeCurrency applies the canonical display form of a currency field.
func NormalizeCurrency(field, text string) (string, error) {
	v, err := ParseCurrency(field, text)
	if err != nil {
		return text, err
	}
	return utils.FormatCurrency(v), nil
}

// NormalizeField canonicalises text for the field it is entered into. Free text fields
// pass through untouched; the date keeps prior on failure.
func NormalizeField(ref models.FieldRef, text, prior string) (string, error) {
	switch {
	case ref.IsCount():
		return NormalizeCount(ref.Column(), text)
	case ref.IsCurrency():
		return NormalizeCurrency(ref.Column(), text)
	case ref.Kind == models.FieldDate:
		return NormalizeDate(text, prior)
	}
	return text, nil
}
