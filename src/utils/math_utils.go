package utils

import (
	"math"

	"github.com/dustin/go-humanize"
)

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// FormatCurrency renders an amount with thousands separators and exactly two decimals,
// e.g. 1234.5 -> "1,234.50".
func FormatCurrency(val float64) string {
	return humanize.FormatFloat("#,###.##", RoundFloat(val, 2))
}

// FormatDollars is FormatCurrency with a leading dollar sign, as printed on reports.
func FormatDollars(val float64) string {
	return "$" + FormatCurrency(val)
}
