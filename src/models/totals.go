// src/models/totals.go
package models

import (
	"strconv"

	"github.com/username/weeklygiving/src/utils"
)

// Totals holds the derived sums of one record at full float precision.
// Rounding to cents happens only when the values are formatted.
type Totals struct {
	Bills      float64 `json:"bills_total"`
	Coins      float64 `json:"coins_total"`
	Special    float64 `json:"special_total"`
	Checks     float64 `json:"checks_total"`
	CheckCount int     `json:"quantity_of_checks"`
	Grand      float64 `json:"total_deposit"`
}

// Stored renders the totals into the persisted text form.
func (t Totals) Stored() StoredTotals {
	return StoredTotals{
		QuantityOfChecks:         strconv.Itoa(t.CheckCount),
		BillsTotal:               utils.FormatCurrency(t.Bills),
		CoinsTotal:               utils.FormatCurrency(t.Coins),
		TotalDesignatedOfferings: utils.FormatCurrency(t.Special),
		ChecksTotal:              utils.FormatCurrency(t.Checks),
		TotalDeposit:             utils.FormatCurrency(t.Grand),
	}
}
