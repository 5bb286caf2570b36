package processors

import (
	"github.com/username/weeklygiving/src/models"
)

// TotalsProcessor computes the derived sums of one record from its raw field text.
type TotalsProcessor interface {
	// Calculate always returns usable totals. Fields that fail to parse contribute zero
	// and are reported together in the returned error.
	Calculate(values models.FieldValues, includeSpecial bool) (models.Totals, error)
}
