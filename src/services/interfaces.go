package services

import (
	"time"

	"github.com/username/weeklygiving/src/config"
	"github.com/username/weeklygiving/src/models"
)

// Choice is the answer to the save-before-proceeding prompt.
type Choice int

const (
	ChoiceSave Choice = iota
	ChoiceDiscard
	ChoiceCancel
)

func (c Choice) String() string {
	switch c {
	case ChoiceSave:
		return "save"
	case ChoiceDiscard:
		return "discard"
	}
	return "cancel"
}

// Prompt asks the user what to do with unsaved edits. It must block until answered.
type Prompt interface {
	ConfirmUnsaved(message string) Choice
}

// NavState tells the presentation layer which movements are currently possible.
type NavState struct {
	HasPrev  bool
	HasNext  bool
	Position int // zero based, -1 when no record is loaded
	Count    int
}

// Display receives everything the form shows. ShowTotals may be called from a
// recalculation goroutine.
type Display interface {
	ShowRecord(rec *models.Record, totals models.Totals)
	ShowTotals(totals models.Totals, err error)
	ShowNavState(state NavState)
}

// Direction selects a navigation movement.
type Direction int

const (
	NavFirst Direction = iota
	NavPrevious
	NavNext
	NavLast
	NavByID
	NavByDate
)

// ResolveAction is the user's answer when the configured database file is missing.
type ResolveAction int

const (
	ResolveLocate ResolveAction = iota
	ResolveCreate
	ResolveQuit
)

// DatabaseResolver is consulted once at startup when the database file is missing.
// For ResolveLocate the returned path names the existing file to use; for
// ResolveCreate it names where the new file goes ("" keeps the default location).
type DatabaseResolver interface {
	ResolveMissingDatabase(expectedPath string) (ResolveAction, string)
}

// GivingService is the record engine surface handed to the presentation layer.
type GivingService interface {
	CreateRecord() (int64, error)
	DeleteRecord(id int64) error
	SaveRecord() error
	Navigate(dir Direction, arg string) error
	Recalculate(values models.FieldValues) (models.Totals, error)
	EditField(name, text string) (string, error)
	Current() (*models.Record, models.Totals)
	NavState() NavState
	ListIDs() ([]int64, error)
	ListDates() ([]models.DateEntry, error)
	IsDirty() bool
	MarkClean()

	Settings() *config.Settings
	ChangeDesignation(index int, label string) error
	SetIncludeSpecial(include bool) error
	ChangeName(name string) error
	ChangeMaxChecks(n int, confirm func(from, to int) bool) error
	SaveToNewLocation(path string) error
	ReloadSettings(s *config.Settings) error
	DepositHistory(from, to string) ([]models.DepositPoint, error)
	Report(id int64) (*models.Report, error)

	Close(now time.Time) error
}

// ReportService assembles and caches the printable form of a record.
type ReportService interface {
	GetReport(rec *models.Record, settings *config.Settings) (*models.Report, error)
	Assemble(rec *models.Record, totals models.Totals, settings *config.Settings) *models.Report
	Invalidate(id int64)
	InvalidateAll()
}

// ReportWriter renders assembled reports to a file.
type ReportWriter interface {
	WriteReport(path string, report *models.Report) error
	WriteDeposits(path, title string, points []models.DepositPoint) error
}
