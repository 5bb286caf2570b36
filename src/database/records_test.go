package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/username/weeklygiving/src/models"
)

func openTestStore(t *testing.T) *RecordStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "giving.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestRecord(store *RecordStore, date string) *models.Record {
	return models.NewRecord(0, date, store.SpecialCount(), store.CheckCount())
}

func TestOpenFreshStore(t *testing.T) {
	store := openTestStore(t)
	if store.SpecialCount() != models.DefaultSpecialCount {
		t.Errorf("SpecialCount() = %d, want %d", store.SpecialCount(), models.DefaultSpecialCount)
	}
	if store.CheckCount() != models.DefaultCheckCount {
		t.Errorf("CheckCount() = %d, want %d", store.CheckCount(), models.DefaultCheckCount)
	}
	ids, err := store.ListIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("fresh store has ids %v", ids)
	}
}

func TestCreateReadUpdate(t *testing.T) {
	store := openTestStore(t)

	rec := newTestRecord(store, "2024-01-07")
	rec.PreparedBy = "J. Smith"
	rec.Bills[0] = "2"
	rec.Checks[3] = "12.50"
	rec.Notes = `Counted by "Deacon" Jones; O'Brien's envelope was late`
	id, err := store.Create(rec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 1 || rec.ID != 1 {
		t.Fatalf("first id = %d (rec.ID %d), want 1", id, rec.ID)
	}

	got, err := store.Read(id)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Date != "2024-01-07" || got.PreparedBy != "J. Smith" || got.Bills[0] != "2" || got.Checks[3] != "12.50" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Notes != rec.Notes {
		t.Errorf("notes = %q, want %q", got.Notes, rec.Notes)
	}
	if len(got.Checks) != models.DefaultCheckCount || len(got.Specials) != models.DefaultSpecialCount {
		t.Errorf("slots: %d checks, %d specials", len(got.Checks), len(got.Specials))
	}

	got.Coins[4] = "17"
	got.Totals.TotalDeposit = "200.17"
	if err := store.Update(got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := store.Read(id)
	if err != nil {
		t.Fatal(err)
	}
	if again.Coins[4] != "17" || again.Totals.TotalDeposit != "200.17" {
		t.Errorf("update not persisted: %+v", again)
	}
}

func TestReadMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Read(42); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Read(42) error = %v, want ErrNotFound", err)
	}
	rec := newTestRecord(store, "2024-01-07")
	rec.ID = 42
	if err := store.Update(rec); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Update(42) error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(42); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Delete(42) error = %v, want ErrNotFound", err)
	}
}

func TestIDsNeverReused(t *testing.T) {
	store := openTestStore(t)
	for i := 0; i < 3; i++ {
		if _, err := store.Create(newTestRecord(store, "2024-01-07")); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Delete(3); err != nil {
		t.Fatal(err)
	}
	id, err := store.Create(newTestRecord(store, "2024-01-14"))
	if err != nil {
		t.Fatal(err)
	}
	if id != 4 {
		t.Errorf("id after deleting the highest = %d, want 4", id)
	}

	ids, err := store.ListIDs()
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ids) != "[1 2 4]" {
		t.Errorf("ListIDs() = %v", ids)
	}
	dates, err := store.ListDates()
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 3 || dates[2].ID != 4 || dates[2].Date != "2024-01-14" {
		t.Errorf("ListDates() = %+v", dates)
	}
}

func TestAlterCheckColumnCount(t *testing.T) {
	store := openTestStore(t)
	rec := newTestRecord(store, "2024-01-07")
	rec.Checks[29] = "9.99"
	rec.Checks[4] = "1.00"
	id, err := store.Create(rec)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.AlterCheckColumnCount(40); err != nil {
		t.Fatalf("grow: %v", err)
	}
	got, err := store.Read(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Checks) != 40 || got.Checks[39] != models.ZeroCurrency || got.Checks[29] != "9.99" {
		t.Errorf("after grow: %d checks, [29]=%q [39]=%q", len(got.Checks), got.Checks[29], got.Checks[39])
	}

	if err := store.AlterCheckColumnCount(5); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	got, err = store.Read(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Checks) != 5 || got.Checks[4] != "1.00" {
		t.Errorf("after shrink: %v", got.Checks)
	}

	for _, n := range []int{4, 201} {
		if err := store.AlterCheckColumnCount(n); err == nil {
			t.Errorf("AlterCheckColumnCount(%d) succeeded", n)
		}
	}
}

func TestColumnCountSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "giving.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AlterCheckColumnCount(12); err != nil {
		t.Fatal(err)
	}
	if err := store.EnsureSpecialColumns(9); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if reopened.CheckCount() != 12 || reopened.SpecialCount() != 9 {
		t.Errorf("reopened counts = %d checks, %d specials", reopened.CheckCount(), reopened.SpecialCount())
	}
}

func TestEnsureSpecialColumnsNeverShrinks(t *testing.T) {
	store := openTestStore(t)
	if err := store.EnsureSpecialColumns(3); err != nil {
		t.Fatal(err)
	}
	if store.SpecialCount() != models.DefaultSpecialCount {
		t.Errorf("SpecialCount() = %d after asking for fewer", store.SpecialCount())
	}
}

func TestAdoptsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	cols := []string{`"id" INTEGER PRIMARY KEY`, `"date" TEXT`, `"prepared_by" TEXT`}
	for _, c := range models.BillColumns {
		cols = append(cols, `"`+c+`" TEXT`)
	}
	for _, c := range models.CoinColumns {
		cols = append(cols, `"`+c+`" TEXT`)
	}
	for i := 0; i < 8; i++ {
		cols = append(cols, `"`+models.SpecialColumn(i)+`" TEXT`)
	}
	for i := 0; i < 10; i++ {
		cols = append(cols, `"`+models.CheckColumn(i)+`" TEXT`)
	}
	cols = append(cols, `"notes" TEXT`)
	for _, c := range totalColumns {
		cols = append(cols, `"`+c+`" TEXT`)
	}
	if _, err := raw.Exec("CREATE TABLE weekly_giving (" + strings.Join(cols, ", ") + ")"); err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Exec(`INSERT INTO weekly_giving (id, date, checks_9) VALUES (7, '2023-12-31', '4.00')`); err != nil {
		t.Fatal(err)
	}
	raw.Close()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open legacy: %v", err)
	}
	defer store.Close()
	if store.SpecialCount() != 8 || store.CheckCount() != 10 {
		t.Fatalf("adopted counts = %d specials, %d checks", store.SpecialCount(), store.CheckCount())
	}
	rec, err := store.Read(7)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Checks[9] != "4.00" || rec.Bills[0] != "" {
		t.Errorf("legacy row = %+v", rec)
	}
}

func TestDepositsBetween(t *testing.T) {
	store := openTestStore(t)
	for _, d := range []struct {
		date  string
		total string
	}{
		{"2024-01-07", "1,200.50"},
		{"2024-01-14", "300.00"},
		{"2024-02-04", "99.99"},
	} {
		rec := newTestRecord(store, d.date)
		rec.Totals.TotalDeposit = d.total
		if _, err := store.Create(rec); err != nil {
			t.Fatal(err)
		}
	}

	points, err := store.DepositsBetween("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 || points[0].TotalDeposit != 1200.50 || points[1].TotalDeposit != 300 {
		t.Errorf("DepositsBetween() = %+v", points)
	}
}

func TestBackupRetention(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Create(newTestRecord(store, "2024-01-07")); err != nil {
		t.Fatal(err)
	}

	start := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)
	var last string
	for i := 0; i < 4; i++ {
		p, err := store.Backup(2, start.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("Backup %d: %v", i, err)
		}
		// mod times must differ for the oldest-first ordering
		mt := start.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(p, mt, mt); err != nil {
			t.Fatal(err)
		}
		last = p
	}

	backups, err := ListBackups(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Fatalf("kept %d backups, want 2: %v", len(backups), backups)
	}
	if backups[1] != last {
		t.Errorf("newest backup = %s, want %s", backups[1], last)
	}

	copyStore, err := Open(last)
	if err != nil {
		t.Fatal(err)
	}
	defer copyStore.Close()
	ids, err := copyStore.ListIDs()
	if err != nil || len(ids) != 1 {
		t.Errorf("backup ids = %v, err %v", ids, err)
	}
}

func TestBackupsInTheSameInstantAreKept(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Create(newTestRecord(store, "2024-01-07")); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)
	first, err := store.Backup(5, now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Backup(5, now)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("second backup overwrote the first: %s", first)
	}
	backups, err := ListBackups(store.Path())
	if err != nil || len(backups) != 2 {
		t.Errorf("backups = %v, %v", backups, err)
	}
}

func TestStoreTracksWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "giving.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if store.Modified() {
		t.Error("fresh store reports writes")
	}
	rec := newTestRecord(store, "2024-01-07")
	if _, err := store.Create(rec); err != nil {
		t.Fatal(err)
	}
	if !store.Modified() {
		t.Error("Create not tracked")
	}
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, err := store.Read(rec.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.ListDates(); err != nil {
		t.Fatal(err)
	}
	if store.Modified() {
		t.Error("reads reported as writes")
	}
	rec.Notes = "recount"
	if err := store.Update(rec); err != nil {
		t.Fatal(err)
	}
	if !store.Modified() {
		t.Error("Update not tracked")
	}
}
