package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/weeklygiving/src/config"
	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/parsers"
	"github.com/username/weeklygiving/src/processors"
	"github.com/username/weeklygiving/src/utils"
)

const (
	ckRecordReport = "report_record_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type reportServiceImpl struct {
	processor   processors.TotalsProcessor
	reportCache *cache.Cache
}

func NewReportService(processor processors.TotalsProcessor, reportCache *cache.Cache) ReportService {
	return &reportServiceImpl{processor: processor, reportCache: reportCache}
}

// GetReport returns the report for a saved record, computing it on a cache miss.
// Field parse errors do not prevent a report; the bad fields count as zero.
func (s *reportServiceImpl) GetReport(rec *models.Record, settings *config.Settings) (*models.Report, error) {
	cacheKey := fmt.Sprintf(ckRecordReport, rec.ID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for report", "id", rec.ID)
		return cached.(*models.Report), nil
	}

	totals, err := s.processor.Calculate(rec.FieldValues, settings.IncludeSpecial)
	if err != nil {
		logger.L.Warn("Report built from a record with unreadable fields", "id", rec.ID, "error", err)
	}
	report := s.Assemble(rec, totals, settings)
	s.reportCache.Set(cacheKey, report, DefaultCacheExpiration)
	return report, nil
}

// Assemble lays out one record and its totals in display form.
func (s *reportServiceImpl) Assemble(rec *models.Record, totals models.Totals, settings *config.Settings) *models.Report {
	report := &models.Report{
		Title:      settings.Name + " Weekly Giving Report",
		RecordID:   rec.ID,
		Date:       rec.Date,
		PreparedBy: rec.PreparedBy,
		Notes:      rec.Notes,
	}

	for i, label := range models.BillLabels {
		report.Bills = append(report.Bills, models.ReportLine{Label: label, Value: displayCount(rec.Bills[i])})
	}
	for i, label := range models.CoinLabels {
		report.Coins = append(report.Coins, models.ReportLine{Label: label, Value: displayCount(rec.Coins[i])})
	}

	labels := settings.SpecialLabels()
	for i, v := range rec.Specials {
		label := fmt.Sprintf("Designation %d", i+1)
		if i < len(labels) {
			label = labels[i]
		}
		report.Specials = append(report.Specials, models.ReportLine{Label: label, Value: displayCurrency(v)})
	}

	for i, v := range rec.Checks {
		amount, err := parsers.ParseCurrency(models.CheckColumn(i), v)
		if err != nil || amount <= 0 {
			continue
		}
		report.Checks = append(report.Checks, models.ReportLine{
			Label: "Check " + strconv.Itoa(i+1),
			Value: utils.FormatCurrency(amount),
		})
	}

	specialLabel := "Special Designations"
	if !settings.IncludeSpecial {
		specialLabel += " (not deposited)"
	}
	report.Totals = []models.ReportLine{
		{Label: "Number of Checks", Value: strconv.Itoa(totals.CheckCount)},
		{Label: "Bills Total", Value: utils.FormatDollars(totals.Bills)},
		{Label: "Coins Total", Value: utils.FormatDollars(totals.Coins)},
		{Label: "Checks Total", Value: utils.FormatDollars(totals.Checks)},
		{Label: specialLabel, Value: utils.FormatDollars(totals.Special)},
		{Label: "Total Deposit", Value: utils.FormatDollars(totals.Grand)},
	}
	return report
}

func (s *reportServiceImpl) Invalidate(id int64) {
	s.reportCache.Delete(fmt.Sprintf(ckRecordReport, id))
}

func (s *reportServiceImpl) InvalidateAll() {
	s.reportCache.Flush()
	logger.L.Debug("Report cache flushed")
}

func displayCount(text string) string {
	if v, err := parsers.NormalizeCount("", text); err == nil {
		return v
	}
	return text
}

func displayCurrency(text string) string {
	if v, err := parsers.NormalizeCurrency("", text); err == nil {
		return v
	}
	return text
}
