package services

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/weeklygiving/src/config"
	"github.com/username/weeklygiving/src/database"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/processors"
)

const settingsTemplate = `{
  "fileLoc": "",
  "specialDesignations": {"spec1": "Love", "spec2": "Equip", "spec3": "Seminary", "spec4": "Growth",
    "spec5": "Camp", "spec6": "Sunday School Offerings", "spec7": "Other Designations"},
  "maxChecks": 30,
  "name": "Grace Church",
  "includeSpecial": false
}`

var testNow = time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)

// fakePrompt answers every unsaved-changes prompt with the next queued choice.
type fakePrompt struct {
	mu      sync.Mutex
	answers []Choice
	asked   int
}

func (p *fakePrompt) ConfirmUnsaved(string) Choice {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked++
	if len(p.answers) == 0 {
		return ChoiceCancel
	}
	c := p.answers[0]
	p.answers = p.answers[1:]
	return c
}

func (p *fakePrompt) queue(c ...Choice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answers = append(p.answers, c...)
}

func (p *fakePrompt) timesAsked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asked
}

type fakeDisplay struct {
	mu      sync.Mutex
	shown   []*models.Record
	totals  []models.Totals
	state   NavState
	lastErr error
}

func (d *fakeDisplay) ShowRecord(rec *models.Record, totals models.Totals) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, rec)
}

func (d *fakeDisplay) ShowTotals(totals models.Totals, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.totals = append(d.totals, totals)
	d.lastErr = err
}

func (d *fakeDisplay) ShowNavState(state NavState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = state
}

func (d *fakeDisplay) lastShown() *models.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.shown) == 0 {
		return nil
	}
	return d.shown[len(d.shown)-1]
}

func (d *fakeDisplay) navState() NavState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

type testEnv struct {
	svc     *givingServiceImpl
	store   *database.RecordStore
	prompt  *fakePrompt
	display *fakeDisplay
	dir     string
}

func loadTestSettings(t *testing.T, dir string) *config.Settings {
	t.Helper()
	tpl := filepath.Join(dir, "default_config.json")
	if err := os.WriteFile(tpl, []byte(settingsTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	settings, err := config.LoadSettings(filepath.Join(dir, "config.json"), tpl)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	return settings
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := database.Open(filepath.Join(dir, "giving.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	processor := processors.NewTotalsProcessor()
	reports := NewReportService(processor, cache.New(DefaultCacheExpiration, CacheCleanupInterval))
	env := &testEnv{store: store, prompt: &fakePrompt{}, display: &fakeDisplay{}, dir: dir}
	svc, err := NewGivingService(store, loadTestSettings(t, dir), processor, reports, env.prompt, env.display, 5)
	if err != nil {
		t.Fatalf("NewGivingService: %v", err)
	}
	env.svc = svc.(*givingServiceImpl)
	t.Cleanup(func() {
		env.svc.recalc.Wait()
		env.svc.store.Close()
	})
	return env
}

// seed creates n records directly in the store and refreshes the navigator.
func (e *testEnv) seed(t *testing.T, dates ...string) []int64 {
	t.Helper()
	var ids []int64
	for _, d := range dates {
		rec := models.NewRecord(0, d, e.store.SpecialCount(), e.store.CheckCount())
		id, err := e.store.Create(rec)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	if err := e.svc.nav.Refresh(); err != nil {
		t.Fatal(err)
	}
	return ids
}

func (e *testEnv) currentID() int64 {
	rec, _ := e.svc.Current()
	if rec == nil {
		return 0
	}
	return rec.ID
}
