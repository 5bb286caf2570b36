// src/models/report.go
package models

// ReportLine is one labelled value on the printed report.
type ReportLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Report is the unit handed to a report renderer: one record plus its computed totals,
// already formatted for display.
type Report struct {
	Title      string       `json:"title"`
	RecordID   int64        `json:"record_id"`
	Date       string       `json:"date"`
	PreparedBy string       `json:"prepared_by"`
	Bills      []ReportLine `json:"bills"`
	Coins      []ReportLine `json:"coins"`
	Specials   []ReportLine `json:"specials"`
	Checks     []ReportLine `json:"checks"`
	Totals     []ReportLine `json:"totals"`
	Notes      string       `json:"notes"`
}
