package services

import (
	"fmt"

	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/utils"
	"github.com/xuri/excelize/v2"
)

const (
	reportSheet   = "Report"
	depositsSheet = "Deposits"
)

// XLSXReportWriter renders reports and deposit histories as Excel workbooks.
type XLSXReportWriter struct{}

func NewXLSXReportWriter() ReportWriter {
	return &XLSXReportWriter{}
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	bold  int
	err   error
}

func (w *sheetWriter) line(label string, value any, boldLabel bool) {
	if w.err != nil {
		return
	}
	w.row++
	if text, ok := value.(string); ok {
		value = utils.SpreadsheetText(text)
	}
	if err := w.f.SetCellValue(w.sheet, fmt.Sprintf("A%d", w.row), utils.SpreadsheetText(label)); err != nil {
		w.err = err
		return
	}
	if value != nil {
		if err := w.f.SetCellValue(w.sheet, fmt.Sprintf("B%d", w.row), value); err != nil {
			w.err = err
			return
		}
	}
	if boldLabel {
		cell := fmt.Sprintf("A%d", w.row)
		w.err = w.f.SetCellStyle(w.sheet, cell, cell, w.bold)
	}
}

func (w *sheetWriter) section(title string, lines []models.ReportLine) {
	if len(lines) == 0 {
		return
	}
	w.row++
	w.line(title, nil, true)
	for _, l := range lines {
		w.line(l.Label, l.Value, false)
	}
}

func newWorkbook(sheet string) (*excelize.File, int, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, 0, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		f.Close()
		return nil, 0, err
	}
	if err := f.SetColWidth(sheet, "B", "B", 18); err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, bold, nil
}

// WriteReport saves one record's report as a single-sheet workbook at path.
func (x *XLSXReportWriter) WriteReport(path string, report *models.Report) error {
	f, bold, err := newWorkbook(reportSheet)
	if err != nil {
		return fmt.Errorf("failed to create report workbook: %w", err)
	}
	defer f.Close()

	w := &sheetWriter{f: f, sheet: reportSheet, bold: bold}
	w.line(report.Title, nil, true)
	w.line("Date", report.Date, true)
	w.line("Prepared By", report.PreparedBy, true)
	w.line("ID", report.RecordID, true)
	w.section("Bills", report.Bills)
	w.section("Coins", report.Coins)
	w.section("Special Designations", report.Specials)
	w.section("Checks", report.Checks)
	w.section("Totals", report.Totals)
	if report.Notes != "" {
		w.row++
		w.line("Notes", report.Notes, true)
	}
	if w.err != nil {
		return fmt.Errorf("failed to fill report workbook: %w", w.err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report %s: %w", path, err)
	}
	logger.L.Info("Report written", "path", path, "id", report.RecordID)
	return nil
}

// WriteDeposits saves a date/total table with a line chart of the totals.
func (x *XLSXReportWriter) WriteDeposits(path, title string, points []models.DepositPoint) error {
	f, bold, err := newWorkbook(depositsSheet)
	if err != nil {
		return fmt.Errorf("failed to create deposits workbook: %w", err)
	}
	defer f.Close()

	w := &sheetWriter{f: f, sheet: depositsSheet, bold: bold}
	w.line("Date", "Total Deposit", true)
	for _, p := range points {
		w.line(p.Date, p.TotalDeposit, false)
	}
	if w.err != nil {
		return fmt.Errorf("failed to fill deposits workbook: %w", w.err)
	}

	if len(points) > 0 {
		last := len(points) + 1
		chart := &excelize.Chart{
			Type: excelize.Line,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$B$1", depositsSheet),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", depositsSheet, last),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", depositsSheet, last),
			}},
			Title: []excelize.RichTextRun{{Text: title}},
		}
		if err := f.AddChart(depositsSheet, "D2", chart); err != nil {
			return fmt.Errorf("failed to add deposits chart: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save deposits %s: %w", path, err)
	}
	logger.L.Info("Deposit history written", "path", path, "points", len(points))
	return nil
}
