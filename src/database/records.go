package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/parsers"
	"go.uber.org/atomic"
)

var totalColumns = []string{
	"quantity_of_checks",
	"bills_total",
	"coins_total",
	"total_designated_offerings",
	"checks_total",
	"total_deposit",
}

// RecordStore persists records in the weekly_giving table, one row per record and
// every field stored as text in its display form.
type RecordStore struct {
	db   *sql.DB
	path string

	mu           sync.RWMutex // guards the column counts
	specialCount int
	checkCount   int

	writes atomic.Int64
}

// Open opens (creating if needed) the store at databasePath.
func Open(databasePath string) (*RecordStore, error) {
	db, err := OpenDB(databasePath)
	if err != nil {
		return nil, err
	}
	store, err := NewRecordStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.path = databasePath
	return store, nil
}

// NewRecordStore wraps an already migrated database.
func NewRecordStore(db *sql.DB) (*RecordStore, error) {
	specials, checks, err := loadColumnCounts(db)
	if err != nil {
		return nil, &models.StorageError{Op: "load column counts", Err: err}
	}
	return &RecordStore{db: db, specialCount: specials, checkCount: checks}, nil
}

// Modified reports whether anything was written through this store since it was opened.
func (s *RecordStore) Modified() bool { return s.writes.Load() > 0 }

// Close closes the underlying database.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// Path returns the file the store was opened from.
func (s *RecordStore) Path() string { return s.path }

// CheckCount returns the number of check columns currently in the table.
func (s *RecordStore) CheckCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkCount
}

// SpecialCount returns the number of special designation columns in the table.
func (s *RecordStore) SpecialCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.specialCount
}

// columns lists every data column except id, in binding order. Callers hold mu.
func (s *RecordStore) columns() []string {
	cols := make([]string, 0, 2+len(models.BillColumns)+len(models.CoinColumns)+s.specialCount+s.checkCount+1+len(totalColumns))
	cols = append(cols, "date", "prepared_by")
	cols = append(cols, models.BillColumns[:]...)
	cols = append(cols, models.CoinColumns[:]...)
	for i := 0; i < s.specialCount; i++ {
		cols = append(cols, models.SpecialColumn(i))
	}
	for i := 0; i < s.checkCount; i++ {
		cols = append(cols, models.CheckColumn(i))
	}
	cols = append(cols, "notes")
	return append(cols, totalColumns...)
}

// values flattens rec in the order of columns(). Callers hold mu.
func (s *RecordStore) values(rec *models.Record) []any {
	r := rec.Clone()
	r.ResizeSpecials(s.specialCount)
	r.ResizeChecks(s.checkCount)

	vals := make([]any, 0, len(s.columns()))
	vals = append(vals, r.Date, r.PreparedBy)
	for _, v := range r.Bills {
		vals = append(vals, v)
	}
	for _, v := range r.Coins {
		vals = append(vals, v)
	}
	for _, v := range r.Specials {
		vals = append(vals, v)
	}
	for _, v := range r.Checks {
		vals = append(vals, v)
	}
	t := r.Totals
	return append(vals, r.Notes,
		t.QuantityOfChecks, t.BillsTotal, t.CoinsTotal, t.TotalDesignatedOfferings, t.ChecksTotal, t.TotalDeposit)
}

func quoted(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = `"` + c + `"`
	}
	return strings.Join(q, ", ")
}

// Create inserts rec and returns its new id, which is one greater than the highest
// id the table has ever held. rec.ID is ignored on input and set on success.
func (s *RecordStore) Create(rec *models.Record) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cols := s.columns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName, quoted(cols), placeholders)

	res, err := s.db.Exec(query, s.values(rec)...)
	if err != nil {
		return 0, &models.StorageError{Op: "create record", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &models.StorageError{Op: "create record", Err: err}
	}
	rec.ID = id
	s.writes.Inc()
	logger.L.Info("Record created", "id", id, "date", rec.Date)
	return id, nil
}

// Read fetches the full record with the given id.
func (s *RecordStore) Read(id int64) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cols := s.columns()
	query := fmt.Sprintf("SELECT id, %s FROM %s WHERE id = ?", quoted(cols), tableName)

	raw := make([]sql.NullString, len(cols))
	dest := make([]any, 0, len(cols)+1)
	var recID int64
	dest = append(dest, &recID)
	for i := range raw {
		dest = append(dest, &raw[i])
	}

	if err := s.db.QueryRow(query, id).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", models.ErrNotFound, id)
		}
		return nil, &models.StorageError{Op: fmt.Sprintf("read record %d", id), Err: err}
	}

	rec := models.NewRecord(recID, "", s.specialCount, s.checkCount)
	next := func() string {
		v := raw[0]
		raw = raw[1:]
		return v.String
	}
	rec.Date = next()
	rec.PreparedBy = next()
	for i := range rec.Bills {
		rec.Bills[i] = next()
	}
	for i := range rec.Coins {
		rec.Coins[i] = next()
	}
	for i := range rec.Specials {
		rec.Specials[i] = next()
	}
	for i := range rec.Checks {
		rec.Checks[i] = next()
	}
	rec.Notes = next()
	rec.Totals = models.StoredTotals{
		QuantityOfChecks:         next(),
		BillsTotal:               next(),
		CoinsTotal:               next(),
		TotalDesignatedOfferings: next(),
		ChecksTotal:              next(),
		TotalDeposit:             next(),
	}
	return rec, nil
}

// Update overwrites every column of the row with rec.ID. The totals are written as
// given; the store never recomputes them.
func (s *RecordStore) Update(rec *models.Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cols := s.columns()
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = `"` + c + `" = ?`
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", tableName, strings.Join(sets, ", "))

	args := append(s.values(rec), rec.ID)
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return &models.StorageError{Op: fmt.Sprintf("update record %d", rec.ID), Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %d", models.ErrNotFound, rec.ID)
	}
	s.writes.Inc()
	logger.L.Info("Record saved", "id", rec.ID)
	return nil
}

// Delete permanently removes the row with the given id.
func (s *RecordStore) Delete(id int64) error {
	res, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", tableName), id)
	if err != nil {
		return &models.StorageError{Op: fmt.Sprintf("delete record %d", id), Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %d", models.ErrNotFound, id)
	}
	s.writes.Inc()
	logger.L.Info("Record deleted", "id", id)
	return nil
}

// ListIDs returns every id in ascending order.
func (s *RecordStore) ListIDs() ([]int64, error) {
	rows, err := s.db.Query(fmt.Sprintf("SELECT id FROM %s ORDER BY id", tableName))
	if err != nil {
		return nil, &models.StorageError{Op: "list ids", Err: err}
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &models.StorageError{Op: "list ids", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list ids", Err: err}
	}
	return ids, nil
}

// ListDates returns (date, id) pairs in the same order as ListIDs.
func (s *RecordStore) ListDates() ([]models.DateEntry, error) {
	rows, err := s.db.Query(fmt.Sprintf("SELECT COALESCE(date, ''), id FROM %s ORDER BY id", tableName))
	if err != nil {
		return nil, &models.StorageError{Op: "list dates", Err: err}
	}
	defer rows.Close()

	var dates []models.DateEntry
	for rows.Next() {
		var e models.DateEntry
		if err := rows.Scan(&e.Date, &e.ID); err != nil {
			return nil, &models.StorageError{Op: "list dates", Err: err}
		}
		dates = append(dates, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list dates", Err: err}
	}
	return dates, nil
}

// DepositsBetween returns the stored total deposit of every record dated within
// [from, to], both YYYY-MM-DD, ordered by date.
func (s *RecordStore) DepositsBetween(from, to string) ([]models.DepositPoint, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT id, date, COALESCE(total_deposit, '') FROM %s WHERE date BETWEEN ? AND ? ORDER BY date, id", tableName),
		from, to)
	if err != nil {
		return nil, &models.StorageError{Op: "query deposits", Err: err}
	}
	defer rows.Close()

	var points []models.DepositPoint
	for rows.Next() {
		var p models.DepositPoint
		var total string
		if err := rows.Scan(&p.ID, &p.Date, &total); err != nil {
			return nil, &models.StorageError{Op: "query deposits", Err: err}
		}
		v, err := parsers.ParseCurrency("total_deposit", total)
		if err != nil {
			logger.L.Warn("Unreadable stored total deposit", "id", p.ID, "value", total)
		}
		p.TotalDeposit = v
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "query deposits", Err: err}
	}
	return points, nil
}

// AlterCheckColumnCount grows or shrinks the set of check columns to n. New columns
// start at "0.00" for every existing row. Shrinking destroys the data in the dropped
// columns and must be confirmed by the caller first.
//
// Each column change commits on its own. A failure part way leaves the columns changed
// so far in place, and the returned error says where it stopped.
func (s *RecordStore) AlterCheckColumnCount(n int) error {
	if n < models.MinCheckCount || n > models.MaxCheckCount {
		return fmt.Errorf("check column count must be between %d and %d, got %d",
			models.MinCheckCount, models.MaxCheckCount, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.checkCount
	for s.checkCount < n {
		if err := addColumn(s.db, models.CheckColumn(s.checkCount), models.ZeroCurrency, metaCheckColumns, s.checkCount+1); err != nil {
			return s.partialAlterError(start, n, err)
		}
		s.checkCount++
		s.writes.Inc()
	}
	for s.checkCount > n {
		if err := dropColumn(s.db, models.CheckColumn(s.checkCount-1), metaCheckColumns, s.checkCount-1); err != nil {
			return s.partialAlterError(start, n, err)
		}
		s.checkCount--
		s.writes.Inc()
	}
	if start != n {
		logger.L.Info("Check columns changed", "from", start, "to", n)
	}
	return nil
}

func (s *RecordStore) partialAlterError(start, target int, err error) error {
	logger.L.Error("Check column change stopped part way",
		"from", start, "target", target, "reached", s.checkCount, "error", err)
	return &models.StorageError{
		Op:  fmt.Sprintf("alter check columns from %d to %d (stopped at %d)", start, target, s.checkCount),
		Err: err,
	}
}

// EnsureSpecialColumns adds special designation columns until there are at least n.
// Existing special columns are never dropped.
func (s *RecordStore) EnsureSpecialColumns(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.specialCount < n {
		if err := addColumn(s.db, models.SpecialColumn(s.specialCount), models.ZeroCurrency, metaSpecialColumns, s.specialCount+1); err != nil {
			return &models.StorageError{
				Op:  fmt.Sprintf("add special columns up to %d (stopped at %d)", n, s.specialCount),
				Err: err,
			}
		}
		s.specialCount++
		s.writes.Inc()
	}
	return nil
}
