// src/processors/totals_processor.go
package processors

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/parsers"
	"golang.org/x/time/rate"
)

type totalsProcessorImpl struct {
	// parse errors repeat on every keystroke while a field is being typed
	parseLogLimiter *rate.Limiter
}

func NewTotalsProcessor() TotalsProcessor {
	return &totalsProcessorImpl{
		parseLogLimiter: rate.NewLimiter(rate.Every(2*time.Second), 5),
	}
}

func (p *totalsProcessorImpl) Calculate(values models.FieldValues, includeSpecial bool) (models.Totals, error) {
	var totals models.Totals
	var errs *multierror.Error

	for i, text := range values.Bills {
		n, err := parsers.ParseCount(models.BillColumns[i], text)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		totals.Bills += float64(n) * float64(models.BillDenominations[i])
	}

	for i, text := range values.Coins {
		n, err := parsers.ParseCount(models.CoinColumns[i], text)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		totals.Coins += float64(n) * models.CoinDenominations[i]
	}

	for i, text := range values.Specials {
		v, err := parsers.ParseCurrency(models.SpecialColumn(i), text)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		totals.Special += v
	}

	for i, text := range values.Checks {
		v, err := parsers.ParseCurrency(models.CheckColumn(i), text)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		totals.Checks += v
		if v > 0 {
			totals.CheckCount++
		}
	}

	totals.Grand = totals.Bills + totals.Coins + totals.Checks
	if includeSpecial {
		totals.Grand += totals.Special
	}

	if errs != nil {
		p.logParseErrors(errs)
	}
	return totals, errs.ErrorOrNil()
}

func (p *totalsProcessorImpl) logParseErrors(errs *multierror.Error) {
	if !p.parseLogLimiter.Allow() {
		return
	}
	for _, err := range errs.Errors {
		logger.L.Warn("Field excluded from totals", "error", err)
	}
}
