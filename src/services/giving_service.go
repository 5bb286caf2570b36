package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/username/weeklygiving/src/config"
	"github.com/username/weeklygiving/src/database"
	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/parsers"
	"github.com/username/weeklygiving/src/processors"
	"github.com/username/weeklygiving/src/utils"
)

type givingServiceImpl struct {
	store      *database.RecordStore
	processor  processors.TotalsProcessor
	recalc     *processors.Recalculator
	reports    ReportService
	guard      *DirtyGuard
	nav        *Navigator
	display    Display
	backupKeep int

	mu       sync.Mutex // guards form, totals and settings
	form     *models.Record
	totals   models.Totals
	settings *config.Settings
}

// NewGivingService wires the record engine around an open store. The store's columns
// are reconciled with the settings before it returns; no record is loaded yet.
func NewGivingService(
	store *database.RecordStore,
	settings *config.Settings,
	processor processors.TotalsProcessor,
	reports ReportService,
	prompt Prompt,
	display Display,
	backupKeep int,
) (GivingService, error) {
	s := &givingServiceImpl{
		store:      store,
		processor:  processor,
		reports:    reports,
		guard:      NewDirtyGuard(prompt),
		display:    display,
		backupKeep: backupKeep,
		settings:   settings,
	}
	s.recalc = processors.NewRecalculator(processor, s.onRecalc)
	s.nav = NewNavigator(store, s, s.guard, display)

	if err := s.reconcileColumns(); err != nil {
		return nil, err
	}
	if err := s.nav.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// reconcileColumns makes the table hold at least the configured columns. Once records
// exist, a settings file asking for fewer check columns never drops any; only
// ChangeMaxChecks does that, after confirmation.
func (s *givingServiceImpl) reconcileColumns() error {
	s.mu.Lock()
	wantSpecials := s.settings.SpecialCount()
	wantChecks := s.settings.MaxChecks
	s.mu.Unlock()

	if err := s.store.EnsureSpecialColumns(wantSpecials); err != nil {
		logger.L.Error("Failed to add special designation columns", "error", err)
		return err
	}
	have := s.store.CheckCount()
	switch {
	case wantChecks > have:
		if err := s.store.AlterCheckColumnCount(wantChecks); err != nil {
			return err
		}
	case wantChecks < have:
		if ids, err := s.store.ListIDs(); err == nil && len(ids) == 0 {
			// nothing to lose on an empty table
			return s.store.AlterCheckColumnCount(wantChecks)
		}
		logger.L.Warn("Settings ask for fewer check columns than the database holds, keeping the database count",
			"settings", wantChecks, "database", have)
		s.mu.Lock()
		s.settings.MaxChecks = have
		s.mu.Unlock()
	}
	return nil
}

func (s *givingServiceImpl) includeSpecial() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.IncludeSpecial
}

// onRecalc receives background recalculation results. The last one delivered wins, even
// when it was computed for the record shown before the latest move.
func (s *givingServiceImpl) onRecalc(res processors.RecalcResult) {
	s.mu.Lock()
	s.totals = res.Totals
	s.mu.Unlock()
	s.display.ShowTotals(res.Totals, res.Err)
}

func (s *givingServiceImpl) loadRecord(id int64) error {
	rec, err := s.store.Read(id)
	if err != nil {
		return err
	}
	totals, perr := s.processor.Calculate(rec.FieldValues, s.includeSpecial())
	if perr != nil {
		logger.L.Debug("Loaded record has unreadable fields", "id", id, "error", perr)
	}

	s.mu.Lock()
	s.form = rec
	s.totals = totals
	s.mu.Unlock()

	s.display.ShowRecord(rec.Clone(), totals)
	return nil
}

func (s *givingServiceImpl) insertRecord() (int64, error) {
	rec := models.NewRecord(0, utils.Today(), s.store.SpecialCount(), s.store.CheckCount())
	id, err := s.store.Create(rec)
	if err != nil {
		logger.L.Error("Failed to create record", "error", err)
		return 0, err
	}
	return id, nil
}

// saveCurrent recomputes the totals synchronously and rewrites the whole row. Unreadable
// fields are saved as typed and contribute zero to the stored totals.
func (s *givingServiceImpl) saveCurrent() error {
	s.mu.Lock()
	if s.form == nil {
		s.mu.Unlock()
		return models.ErrNoRecords
	}
	rec := s.form.Clone()
	include := s.settings.IncludeSpecial
	s.mu.Unlock()

	totals, perr := s.processor.Calculate(rec.FieldValues, include)
	rec.Totals = totals.Stored()
	if err := s.store.Update(rec); err != nil {
		logger.L.Error("Failed to save record", "id", rec.ID, "error", err)
		return err
	}

	s.mu.Lock()
	if s.form != nil && s.form.ID == rec.ID {
		s.form.Totals = rec.Totals
	}
	s.totals = totals
	s.mu.Unlock()

	s.guard.MarkClean()
	s.reports.Invalidate(rec.ID)
	if err := s.nav.Refresh(); err != nil {
		return err
	}
	s.display.ShowTotals(totals, perr)
	return nil
}

func (s *givingServiceImpl) CreateRecord() (int64, error) {
	if err := s.guard.ConfirmOrAbort(s.saveCurrent); err != nil {
		return 0, err
	}
	id, err := s.insertRecord()
	if err != nil {
		return 0, err
	}
	return id, s.nav.ShowNew(id)
}

// DeleteRecord removes a record permanently. Deleting the record on the form moves to
// the last remaining record, or to a new one when none remain.
func (s *givingServiceImpl) DeleteRecord(id int64) error {
	if err := s.store.Delete(id); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logger.L.Error("Failed to delete record", "id", id, "error", err)
		}
		return err
	}
	s.reports.Invalidate(id)

	if id != s.nav.CurrentID() {
		if err := s.nav.Refresh(); err != nil {
			return err
		}
		s.display.ShowNavState(s.nav.State())
		return nil
	}

	s.mu.Lock()
	s.form = nil
	s.mu.Unlock()
	s.guard.MarkClean()
	if err := s.nav.Refresh(); err != nil {
		return err
	}
	return s.nav.Last()
}

func (s *givingServiceImpl) SaveRecord() error {
	return s.saveCurrent()
}

// Navigate moves the form. arg is the id for NavByID and the date for NavByDate.
func (s *givingServiceImpl) Navigate(dir Direction, arg string) error {
	switch dir {
	case NavFirst:
		return s.nav.First()
	case NavPrevious:
		return s.nav.Previous()
	case NavNext:
		return s.nav.Next()
	case NavLast:
		return s.nav.Last()
	case NavByID:
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record id %q", arg)
		}
		return s.nav.GoTo(id)
	case NavByDate:
		date, err := parsers.ParseDate(arg)
		if err != nil {
			return err
		}
		return s.nav.GoToDate(date)
	}
	return fmt.Errorf("unknown navigation direction %d", dir)
}

func (s *givingServiceImpl) Recalculate(values models.FieldValues) (models.Totals, error) {
	return s.processor.Calculate(values, s.includeSpecial())
}

// EditField applies a committed field edit to the form and returns the canonical text.
// A parse error is returned alongside the text kept in the field; totals are
// recalculated in the background either way.
func (s *givingServiceImpl) EditField(name, text string) (string, error) {
	ref, err := models.ParseFieldRef(name)
	if err != nil {
		return text, err
	}

	s.mu.Lock()
	if s.form == nil {
		s.mu.Unlock()
		return text, models.ErrNoRecords
	}
	prior, err := s.form.Get(ref)
	if err != nil {
		s.mu.Unlock()
		return text, err
	}
	value, perr := parsers.NormalizeField(ref, text, prior)
	if err := s.form.Set(ref, value); err != nil {
		s.mu.Unlock()
		return text, err
	}
	values := s.form.FieldValues.Clone()
	include := s.settings.IncludeSpecial
	s.mu.Unlock()

	s.guard.MarkEdited()
	s.recalc.Dispatch(values, include)
	return value, perr
}

// Current returns a copy of the form record and the totals last delivered for it.
func (s *givingServiceImpl) Current() (*models.Record, models.Totals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form == nil {
		return nil, models.Totals{}
	}
	return s.form.Clone(), s.totals
}

func (s *givingServiceImpl) NavState() NavState {
	return s.nav.State()
}

func (s *givingServiceImpl) ListIDs() ([]int64, error) {
	return s.store.ListIDs()
}

func (s *givingServiceImpl) ListDates() ([]models.DateEntry, error) {
	return s.store.ListDates()
}

func (s *givingServiceImpl) IsDirty() bool {
	return s.guard.IsDirty()
}

func (s *givingServiceImpl) MarkClean() {
	s.guard.MarkClean()
}

func (s *givingServiceImpl) Settings() *config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// applySettings persists next and makes it current.
func (s *givingServiceImpl) applySettings(next *config.Settings) error {
	if err := next.Validate(); err != nil {
		return &models.ConfigError{Path: next.Path(), Err: err}
	}
	if err := next.Save(); err != nil {
		logger.L.Error("Failed to save settings", "path", next.Path(), "error", err)
		return err
	}
	s.mu.Lock()
	s.settings = next
	s.mu.Unlock()
	s.reports.InvalidateAll()
	return nil
}

// refreshTotals recalculates the form after a settings change.
func (s *givingServiceImpl) refreshTotals() {
	s.mu.Lock()
	if s.form == nil {
		s.mu.Unlock()
		return
	}
	values := s.form.FieldValues.Clone()
	include := s.settings.IncludeSpecial
	s.mu.Unlock()
	s.recalc.Dispatch(values, include)
}

// ChangeDesignation renames designation index (zero based). Naming the slot just past
// the last one adds a new designation and its column.
func (s *givingServiceImpl) ChangeDesignation(index int, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return errors.New("designation label cannot be empty")
	}
	next := s.Settings()
	if index == next.SpecialCount() {
		next.SpecialDesignations[models.SpecialColumn(index)] = label
	} else if err := next.SetSpecialLabel(index, label); err != nil {
		return err
	}

	if err := s.store.EnsureSpecialColumns(next.SpecialCount()); err != nil {
		logger.L.Error("Failed to add special designation column", "error", err)
		return err
	}
	if err := s.applySettings(next); err != nil {
		return err
	}

	s.mu.Lock()
	if s.form != nil {
		s.form.ResizeSpecials(s.store.SpecialCount())
	}
	s.mu.Unlock()
	logger.L.Info("Special designation changed", "index", index+1, "label", label)
	return nil
}

func (s *givingServiceImpl) SetIncludeSpecial(include bool) error {
	next := s.Settings()
	next.IncludeSpecial = include
	if err := s.applySettings(next); err != nil {
		return err
	}
	logger.L.Info("Include special designations in deposit changed", "include", include)
	s.refreshTotals()
	return nil
}

func (s *givingServiceImpl) ChangeName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name cannot be empty")
	}
	next := s.Settings()
	next.Name = name
	if err := s.applySettings(next); err != nil {
		return err
	}
	logger.L.Info("Display name changed", "name", name)
	return nil
}

// ChangeMaxChecks resizes the check columns to n. Shrinking destroys data in the
// removed columns, so confirm is asked first and a refusal returns models.ErrAborted.
// Unsaved edits go through the usual prompt because the form is reloaded afterwards.
func (s *givingServiceImpl) ChangeMaxChecks(n int, confirm func(from, to int) bool) error {
	if n < models.MinCheckCount || n > models.MaxCheckCount {
		return fmt.Errorf("number of checks must be between %d and %d", models.MinCheckCount, models.MaxCheckCount)
	}
	from := s.store.CheckCount()
	if n < from && (confirm == nil || !confirm(from, n)) {
		return models.ErrAborted
	}
	if err := s.guard.ConfirmOrAbort(s.saveCurrent); err != nil {
		return err
	}

	alterErr := s.store.AlterCheckColumnCount(n)
	if alterErr != nil {
		logger.L.Error("Failed to change number of checks", "from", from, "to", n, "error", alterErr)
	}

	next := s.Settings()
	next.MaxChecks = s.store.CheckCount()
	if err := s.applySettings(next); err != nil {
		return multierror.Append(alterErr, err).ErrorOrNil()
	}

	if id := s.nav.CurrentID(); id != 0 {
		if err := s.loadRecord(id); err != nil {
			return multierror.Append(alterErr, err).ErrorOrNil()
		}
		s.guard.MarkClean()
	}
	return alterErr
}

// SaveToNewLocation copies the database to path and continues working on the copy.
func (s *givingServiceImpl) SaveToNewLocation(path string) error {
	if err := s.store.CopyTo(path); err != nil {
		logger.L.Error("Failed to copy database", "path", path, "error", err)
		return err
	}
	moved, err := database.Open(path)
	if err != nil {
		logger.L.Error("Failed to open copied database", "path", path, "error", err)
		return err
	}

	next := s.Settings()
	next.FileLoc = path
	if err := s.applySettings(next); err != nil {
		moved.Close()
		return err
	}

	old := s.store
	s.store = moved
	s.nav.index = moved
	if err := old.Close(); err != nil {
		logger.L.Warn("Failed to close previous database", "path", old.Path(), "error", err)
	}
	logger.L.Info("New database file location", "path", path)
	return s.nav.Refresh()
}

// ReloadSettings adopts settings edited outside the application.
func (s *givingServiceImpl) ReloadSettings(next *config.Settings) error {
	if err := next.Validate(); err != nil {
		return &models.ConfigError{Path: next.Path(), Err: err}
	}
	s.mu.Lock()
	s.settings = next
	s.mu.Unlock()

	if err := s.reconcileColumns(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.form != nil {
		s.form.ResizeSpecials(s.store.SpecialCount())
		s.form.ResizeChecks(s.store.CheckCount())
	}
	s.mu.Unlock()

	s.reports.InvalidateAll()
	s.refreshTotals()
	logger.L.Info("Settings reloaded", "path", next.Path())
	return nil
}

// DepositHistory returns the stored total deposits between two dates, inclusive.
func (s *givingServiceImpl) DepositHistory(from, to string) ([]models.DepositPoint, error) {
	start, err := parsers.ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := parsers.ParseDate(to)
	if err != nil {
		return nil, err
	}
	if start > end {
		start, end = end, start
	}
	return s.store.DepositsBetween(start, end)
}

// Report builds the printable report of a saved record. id 0 means the form as it is
// now, including unsaved edits.
func (s *givingServiceImpl) Report(id int64) (*models.Report, error) {
	settings := s.Settings()
	if id == 0 {
		rec, _ := s.Current()
		if rec == nil {
			return nil, models.ErrNoRecords
		}
		totals, err := s.processor.Calculate(rec.FieldValues, settings.IncludeSpecial)
		if err != nil {
			logger.L.Warn("Report built from a form with unreadable fields", "id", rec.ID, "error", err)
		}
		return s.reports.Assemble(rec, totals, settings), nil
	}

	rec, err := s.store.Read(id)
	if err != nil {
		return nil, err
	}
	return s.reports.GetReport(rec, settings)
}

// Close asks about unsaved edits, then closes the store, writing a backup first when
// the store was changed during this run. A cancelled prompt returns models.ErrAborted
// and leaves everything open.
func (s *givingServiceImpl) Close(now time.Time) error {
	if err := s.guard.ConfirmOrAbort(s.saveCurrent); err != nil {
		return err
	}
	s.recalc.Wait()

	var result *multierror.Error
	if s.store.Modified() {
		if _, err := s.store.Backup(s.backupKeep, now); err != nil {
			logger.L.Error("Backup on close failed", "error", err)
			result = multierror.Append(result, err)
		}
	} else {
		logger.L.Debug("Nothing written, skipping backup")
	}
	if err := s.store.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	logger.L.Info("Weekly giving closed")
	return result.ErrorOrNil()
}
