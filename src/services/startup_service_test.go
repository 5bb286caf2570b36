package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/username/weeklygiving/src/config"
	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
)

type fakeResolver struct {
	action ResolveAction
	path   string
	asked  string
}

func (r *fakeResolver) ResolveMissingDatabase(expected string) (ResolveAction, string) {
	r.asked = expected
	return r.action, r.path
}

func testAppConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	tpl := filepath.Join(dir, "default_config.json")
	if err := os.WriteFile(tpl, []byte(settingsTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	appData := filepath.Join(dir, "appdata")
	t.Cleanup(func() { logger.Close() })
	return &config.AppConfig{
		AppDataDir:          appData,
		SettingsPath:        filepath.Join(appData, "config.json"),
		DefaultSettingsPath: tpl,
		LogLevel:            "debug",
		LogFilePath:         filepath.Join(appData, "log.txt"),
		BackupKeep:          5,
	}
}

func runStartup(s *Startup) (StartupResult, []string) {
	progress := make(chan string)
	done := s.Run(progress)
	var msgs []string
	for m := range progress {
		msgs = append(msgs, m)
	}
	return <-done, msgs
}

func TestStartupCreatesDatabase(t *testing.T) {
	cfg := testAppConfig(t)
	resolver := &fakeResolver{action: ResolveCreate}
	res, msgs := runStartup(NewStartup(cfg, resolver, &fakePrompt{}, &fakeDisplay{}))
	if res.Err != nil {
		t.Fatalf("startup: %v", res.Err)
	}
	defer res.Service.Close(testNow)

	wantDB := filepath.Join(cfg.AppDataDir, DefaultDatabaseName)
	if resolver.asked != wantDB {
		t.Errorf("resolver asked about %q, want %q", resolver.asked, wantDB)
	}
	if len(msgs) == 0 {
		t.Error("no progress messages")
	}
	if res.Settings.FileLoc != wantDB {
		t.Errorf("FileLoc = %q", res.Settings.FileLoc)
	}
	saved, err := config.LoadSettings(cfg.SettingsPath, "")
	if err != nil || saved.FileLoc != wantDB {
		t.Errorf("persisted FileLoc = %+v, %v", saved, err)
	}
	if _, err := os.Stat(cfg.LogFilePath); err != nil {
		t.Errorf("log file missing: %v", err)
	}

	if err := res.Service.Navigate(NavLast, ""); err != nil {
		t.Fatal(err)
	}
	ids, _ := res.Service.ListIDs()
	if len(ids) != 1 {
		t.Errorf("ids after first Last = %v", ids)
	}
}

func TestStartupQuit(t *testing.T) {
	cfg := testAppConfig(t)
	res, _ := runStartup(NewStartup(cfg, &fakeResolver{action: ResolveQuit}, &fakePrompt{}, &fakeDisplay{}))
	if !errors.Is(res.Err, models.ErrAborted) || res.Service != nil {
		t.Errorf("startup after quit = %+v", res)
	}
}

func TestStartupMissingTemplate(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.DefaultSettingsPath = filepath.Join(t.TempDir(), "nope.json")
	res, _ := runStartup(NewStartup(cfg, &fakeResolver{action: ResolveCreate}, &fakePrompt{}, &fakeDisplay{}))
	var cerr *models.ConfigError
	if !errors.As(res.Err, &cerr) {
		t.Errorf("startup with missing template = %v", res.Err)
	}
}

func TestStartupLocateMissingFile(t *testing.T) {
	cfg := testAppConfig(t)
	resolver := &fakeResolver{action: ResolveLocate, path: filepath.Join(t.TempDir(), "absent.db")}
	res, _ := runStartup(NewStartup(cfg, resolver, &fakePrompt{}, &fakeDisplay{}))
	var serr *models.StorageError
	if !errors.As(res.Err, &serr) {
		t.Errorf("locating a missing file = %v", res.Err)
	}
}
