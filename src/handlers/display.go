package handlers

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/parsers"
	"github.com/username/weeklygiving/src/services"
	"github.com/username/weeklygiving/src/utils"
)

// ConsoleDisplay implements services.Display on a Console. With quiet set it only
// keeps the latest state without printing.
type ConsoleDisplay struct {
	console *Console
	quiet   bool

	mu     sync.Mutex
	labels []string
	state  services.NavState
}

func NewConsoleDisplay(console *Console, labels []string, quiet bool) *ConsoleDisplay {
	return &ConsoleDisplay{console: console, labels: labels, quiet: quiet}
}

func (d *ConsoleDisplay) SetLabels(labels []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.labels = labels
}

func (d *ConsoleDisplay) label(i int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < len(d.labels) {
		return d.labels[i]
	}
	return fmt.Sprintf("Designation %d", i+1)
}

func (d *ConsoleDisplay) ShowRecord(rec *models.Record, totals models.Totals) {
	if d.quiet {
		return
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Record %d\tDate: %s\tPrepared by: %s\n", rec.ID, rec.Date, rec.PreparedBy)
	for i, label := range models.BillLabels {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", label, rec.Bills[i], models.BillColumns[i])
	}
	for i, label := range models.CoinLabels {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", label, rec.Coins[i], models.CoinColumns[i])
	}
	for i, v := range rec.Specials {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", d.label(i), v, models.SpecialColumn(i))
	}
	shown := 0
	for i, v := range rec.Checks {
		if amount, err := parsers.ParseCurrency("", v); err == nil && amount == 0 {
			continue
		}
		fmt.Fprintf(tw, "  Check %d\t%s\t%s\n", i+1, v, models.CheckColumn(i))
		shown++
	}
	tw.Flush()
	if shown < len(rec.Checks) {
		fmt.Fprintf(&b, "  (%d of %d check slots empty, set checks_N to fill one)\n", len(rec.Checks)-shown, len(rec.Checks))
	}
	if rec.Notes != "" {
		fmt.Fprintf(&b, "  Notes: %s\n", rec.Notes)
	}
	d.console.Printf("%s%s\n", b.String(), formatTotals(totals))
}

func (d *ConsoleDisplay) ShowTotals(totals models.Totals, err error) {
	if d.quiet {
		return
	}
	if err != nil {
		d.console.Printf("Warning: %v\n", err)
	}
	d.console.Println(formatTotals(totals))
}

func (d *ConsoleDisplay) ShowNavState(state services.NavState) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
	if d.quiet {
		return
	}
	var moves []string
	if state.HasPrev {
		moves = append(moves, "prev")
	}
	if state.HasNext {
		moves = append(moves, "next")
	}
	d.console.Printf("[record %d of %d] %s\n", state.Position+1, state.Count, strings.Join(moves, " "))
}

func formatTotals(t models.Totals) string {
	return fmt.Sprintf("  Bills %s | Coins %s | Checks %s (%d) | Special %s | Deposit %s",
		utils.FormatDollars(t.Bills), utils.FormatDollars(t.Coins), utils.FormatDollars(t.Checks),
		t.CheckCount, utils.FormatDollars(t.Special), utils.FormatDollars(t.Grand))
}

// writeReport renders a report as plain text.
func writeReport(w io.Writer, r *models.Report) {
	fmt.Fprintln(w, r.Title)
	fmt.Fprintln(w, strings.Repeat("=", len(r.Title)))
	fmt.Fprintf(w, "Date: %s    Prepared By: %s    ID: %d\n", r.Date, r.PreparedBy, r.RecordID)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	section := func(title string, lines []models.ReportLine) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(tw, "\n%s\t\t\n", title)
		for _, l := range lines {
			fmt.Fprintf(tw, "  %s\t%s\t\n", l.Label, l.Value)
		}
	}
	section("Bills", r.Bills)
	section("Coins", r.Coins)
	section("Special Designations", r.Specials)
	section("Checks", r.Checks)
	section("Totals", r.Totals)
	tw.Flush()
	if r.Notes != "" {
		fmt.Fprintf(w, "\nNotes: %s\n", r.Notes)
	}
}
