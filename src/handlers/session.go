package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/username/weeklygiving/src/config"
	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/services"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Open an interactive session on the most recent record (default)",
	Args:  cobra.NoArgs,
	RunE:  runSession,
}

const sessionHelp = `Commands:
  first | prev | next | last     move between records
  goto <id>                      open a record by id
  date <date>                    open the first record with that date
  new                            start a new record dated today
  delete                         delete the record on screen
  set <field> <value>            edit a field, e.g. "set bills_20 7", "set checks_0 125.00",
                                 "set spec2 40", "set date 3/5/2024", "set notes ..."
  save                           save the record on screen
  show                           show the record again
  report [file.xlsx]             print the report, or write it as a workbook
  list                           list every record by date
  deposits <from> <to> [file]    deposit history, optionally as a workbook
  settings                       show the current settings
  designation <n> <label>        rename special designation n (n one past the last adds one)
  include-special <on|off>       count special designations in the deposit
  name <name>                    change the name printed on reports
  max-checks <n>                 change the number of check slots
  relocate <path>                copy the database to a new file and use it
  log                            show the log
  quit                           save or discard, back up and leave`

func runSession(cmd *cobra.Command, args []string) error {
	a, err := startApp(cmd, false)
	if err != nil {
		return err
	}

	reloads := make(chan *config.Settings, 1)
	stop, err := config.WatchSettings(a.cfg.SettingsPath,
		func(s *config.Settings) {
			select {
			case reloads <- s:
			default:
				logger.L.Debug("Settings reload already pending, dropping event")
			}
		},
		func(err error) { logger.L.Warn("Settings watch error", "error", err) })
	if err != nil {
		logger.L.Warn("Settings changes made elsewhere will not be picked up", "error", err)
	} else {
		defer stop()
	}

	return NewSessionHandler(a).Run(reloads)
}

// SessionHandler drives one interactive session.
type SessionHandler struct {
	app *app
	svc services.GivingService
	out *Console
}

func NewSessionHandler(a *app) *SessionHandler {
	return &SessionHandler{app: a, svc: a.svc, out: a.console}
}

// Run shows the last record and processes commands until quit or end of input.
func (h *SessionHandler) Run(reloads <-chan *config.Settings) error {
	h.out.Println("Type 'help' for commands.")
	if err := h.svc.Navigate(services.NavLast, ""); err != nil {
		h.out.Println(describeError(err))
	}

	for {
		h.out.Printf("> ")
		select {
		case s := <-reloads:
			h.out.Println("\nSettings changed on disk, reloading.")
			if err := h.svc.ReloadSettings(s); err != nil {
				h.out.Println(describeError(err))
				continue
			}
			h.app.display.SetLabels(h.svc.Settings().SpecialLabels())
		case line, ok := <-h.out.Lines():
			if !ok {
				h.out.Println()
				return h.app.close(true)
			}
			quit, err := h.exec(line)
			if err != nil {
				h.out.Println(describeError(err))
			}
			if quit {
				return nil
			}
		}
	}
}

// exec runs one command line and reports whether the session is over.
func (h *SessionHandler) exec(line string) (bool, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(name) {
	case "":
		return false, nil
	case "help", "?":
		h.out.Println(sessionHelp)
	case "first", "f":
		return false, h.svc.Navigate(services.NavFirst, "")
	case "prev", "p":
		return false, h.svc.Navigate(services.NavPrevious, "")
	case "next", "n":
		return false, h.svc.Navigate(services.NavNext, "")
	case "last", "l":
		return false, h.svc.Navigate(services.NavLast, "")
	case "goto", "g":
		return false, h.svc.Navigate(services.NavByID, rest)
	case "date":
		return false, h.svc.Navigate(services.NavByDate, rest)
	case "new":
		_, err := h.svc.CreateRecord()
		return false, err
	case "delete":
		return false, h.deleteCurrent()
	case "set":
		field, value, _ := strings.Cut(rest, " ")
		if field == "" {
			return false, errors.New("usage: set <field> <value>")
		}
		got, err := h.svc.EditField(field, strings.TrimSpace(value))
		if err == nil || models.IsParseError(err) {
			h.out.Printf("  %s = %s\n", field, got)
		}
		return false, err
	case "save", "s":
		if err := h.svc.SaveRecord(); err != nil {
			return false, err
		}
		h.out.Println("Saved.")
	case "show":
		rec, totals := h.svc.Current()
		if rec == nil {
			return false, models.ErrNoRecords
		}
		h.app.display.ShowRecord(rec, totals)
		h.app.display.ShowNavState(h.svc.NavState())
	case "report":
		return false, h.report(args)
	case "list":
		return false, listRecords(h.svc, h.out)
	case "deposits":
		if len(args) < 2 {
			return false, errors.New("usage: deposits <from> <to> [file.xlsx]")
		}
		file := ""
		if len(args) > 2 {
			file = args[2]
		}
		return false, showDeposits(h.svc, h.out, args[0], args[1], file)
	case "settings":
		showSettings(h.out, h.svc.Settings())
	case "designation":
		n, label, _ := strings.Cut(rest, " ")
		idx, err := strconv.Atoi(n)
		if err != nil {
			return false, errors.New("usage: designation <n> <label>")
		}
		if err := h.svc.ChangeDesignation(idx-1, label); err != nil {
			return false, err
		}
		h.app.display.SetLabels(h.svc.Settings().SpecialLabels())
	case "include-special":
		on, err := parseOnOff(rest)
		if err != nil {
			return false, err
		}
		return false, h.svc.SetIncludeSpecial(on)
	case "name":
		return false, h.svc.ChangeName(rest)
	case "max-checks":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return false, errors.New("usage: max-checks <n>")
		}
		return false, h.svc.ChangeMaxChecks(n, h.confirmShrink)
	case "relocate":
		if rest == "" {
			return false, errors.New("usage: relocate <path>")
		}
		if err := h.svc.SaveToNewLocation(rest); err != nil {
			return false, err
		}
		h.out.Printf("Now using %s\n", rest)
	case "log":
		return false, showLog(h.out)
	case "quit", "exit", "q":
		err := h.app.close(false)
		if errors.Is(err, models.ErrAborted) {
			return false, err
		}
		return true, err
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", name)
	}
	return false, nil
}

func (h *SessionHandler) deleteCurrent() error {
	rec, _ := h.svc.Current()
	if rec == nil {
		return models.ErrNoRecords
	}
	if !h.out.Confirm(fmt.Sprintf("Really delete record %d (%s)? This cannot be undone.", rec.ID, rec.Date)) {
		return models.ErrAborted
	}
	return h.svc.DeleteRecord(rec.ID)
}

func (h *SessionHandler) confirmShrink(from, to int) bool {
	return h.out.Confirm(fmt.Sprintf(
		"Reducing checks from %d to %d permanently deletes checks %d-%d from every record. Continue?",
		from, to, to+1, from))
}

func (h *SessionHandler) report(args []string) error {
	report, err := h.svc.Report(0)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		if h.svc.IsDirty() {
			h.out.Println("(includes unsaved changes)")
		}
		writeReport(h.out, report)
		return nil
	}
	if err := services.NewXLSXReportWriter().WriteReport(args[0], report); err != nil {
		return err
	}
	h.out.Printf("Report written to %s\n", args[0])
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
