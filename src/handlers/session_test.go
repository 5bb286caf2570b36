package handlers

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/username/weeklygiving/src/database"
	"github.com/username/weeklygiving/src/logger"
)

const cliTemplate = `{
  "fileLoc": "",
  "specialDesignations": {"spec1": "Love", "spec2": "Equip", "spec3": "Seminary"},
  "maxChecks": 10,
  "name": "Hope Chapel",
  "includeSpecial": false
}`

func setupCLIEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	tpl := filepath.Join(dir, "default_config.json")
	if err := os.WriteFile(tpl, []byte(cliTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	appData := filepath.Join(dir, "appdata")
	t.Setenv("WG_APPDATA_DIR", appData)
	t.Setenv("WG_SETTINGS_PATH", filepath.Join(appData, "config.json"))
	t.Setenv("WG_DEFAULT_SETTINGS", tpl)
	t.Setenv("WG_LOG_PATH", filepath.Join(appData, "log.txt"))
	t.Setenv("WG_DATABASE_PATH", "")
	t.Setenv("LOG_LEVEL", "debug")
	t.Cleanup(func() { logger.Close() })
	return appData
}

func runCLI(t *testing.T, input string, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\noutput:\n%s\n%s", args, err, out.String(), errOut.String())
	}
	return out.String()
}

func TestSessionEditSaveAndReport(t *testing.T) {
	appData := setupCLIEnv(t)

	script := strings.Join([]string{
		"c", "", // create the database at the default location
		"set bills_100 3",
		"set checks_0 1,250.5",
		"set notes Counted after the \"late\" service",
		"save",
		"report",
		"new",
		"set bills_1 abc",
		"quit",
		"d", // the new record is dirty: discard
	}, "\n") + "\n"
	out := runCLI(t, script, "session")

	for _, want := range []string{"Saved.", "Hope Chapel Weekly Giving Report", "$1,550.50", "Warning:"} {
		if !strings.Contains(out, want) {
			t.Errorf("session output missing %q:\n%s", want, out)
		}
	}

	dbPath := filepath.Join(appData, "weekly_giving.db")
	backups, err := database.ListBackups(dbPath)
	if err != nil || len(backups) != 1 {
		t.Errorf("backups after quit = %v, %v", backups, err)
	}

	store, err := database.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	rec, err := store.Read(1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Bills[0] != "3" || rec.Checks[0] != "1,250.50" || rec.Notes != `Counted after the "late" service` {
		t.Errorf("saved record = %+v", rec)
	}
	if rec.Totals.TotalDeposit != "1,550.50" || rec.Totals.QuantityOfChecks != "1" {
		t.Errorf("saved totals = %+v", rec.Totals)
	}
}

func TestListAndShowCommands(t *testing.T) {
	setupCLIEnv(t)
	runCLI(t, "c\n\nset bills_20 4\nsave\nquit\n", "session")

	out := runCLI(t, "", "list")
	if !strings.Contains(out, "ID") || !strings.Contains(out, "1 ") {
		t.Errorf("list output:\n%s", out)
	}

	out = runCLI(t, "", "show", "1")
	if !strings.Contains(out, "$20 Bills") || !strings.Contains(out, "$80.00") {
		t.Errorf("show output:\n%s", out)
	}
}

func TestSettingsCommands(t *testing.T) {
	setupCLIEnv(t)
	runCLI(t, "c\n\nquit\n", "session")

	runCLI(t, "", "settings", "name", "Hope", "Community", "Chapel")
	runCLI(t, "", "settings", "designation", "4", "Building")
	runCLI(t, "", "settings", "max-checks", "6", "--yes")

	out := runCLI(t, "", "settings")
	for _, want := range []string{"Hope Community Chapel", "4. Building", "Number of checks: 6"} {
		if !strings.Contains(out, want) {
			t.Errorf("settings output missing %q:\n%s", want, out)
		}
	}
}

func TestSessionEndOfInputClosesCleanly(t *testing.T) {
	appData := setupCLIEnv(t)
	runCLI(t, "c\n\nset bills_5 2\n", "session")

	backups, err := database.ListBackups(filepath.Join(appData, "weekly_giving.db"))
	if err != nil || len(backups) != 1 {
		t.Errorf("backups = %v, %v", backups, err)
	}
}

func TestReadOnlyCommandsKeepSessionBackup(t *testing.T) {
	appData := setupCLIEnv(t)
	dbPath := filepath.Join(appData, "weekly_giving.db")
	runCLI(t, "c\n\nset bills_20 4\nsave\nquit\n", "session")
	before, err := database.ListBackups(dbPath)
	if err != nil || len(before) != 1 {
		t.Fatalf("backups after session = %v, %v", before, err)
	}

	for i := 0; i < 6; i++ {
		runCLI(t, "", "list")
	}
	runCLI(t, "", "show", "1")
	runCLI(t, "", "settings")

	after, err := database.ListBackups(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 || after[0] != before[0] {
		t.Errorf("read-only commands changed the backups: %v -> %v", before, after)
	}
}
