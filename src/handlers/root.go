package handlers

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/weeklygiving/src/config"
	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/services"
)

var rootCmd = &cobra.Command{
	Use:   "weeklygiving",
	Short: "Record, total and report weekly church offering counts",
	Long: `Weekly Giving keeps one record per offering count: bill and coin counts,
special designations and checks, with the totals worked out as you type.

Run without a command to open an interactive session on the most recent record.`,
	SilenceUsage: true,
	RunE:         runSession,
}

// Execute runs the command line. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(sessionCmd, listCmd, showCmd, reportCmd, depositsCmd, logCmd, settingsCmd)
}

// app is what every command works with once startup has finished.
type app struct {
	cfg     *config.AppConfig
	console *Console
	display *ConsoleDisplay
	svc     services.GivingService
}

// startApp loads the configuration and runs the startup checks, printing progress to
// errOut until they finish.
func startApp(cmd *cobra.Command, quiet bool) (*app, error) {
	cfg := config.LoadConfig()
	console := NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())
	display := NewConsoleDisplay(console, nil, quiet)

	progress := make(chan string)
	done := services.NewStartup(cfg, console, console, display).Run(progress)
	errOut := cmd.ErrOrStderr()
	for msg := range progress {
		fmt.Fprintln(errOut, msg)
	}
	res := <-done
	if res.Err != nil {
		return nil, res.Err
	}
	display.SetLabels(res.Settings.SpecialLabels())
	return &app{cfg: cfg, console: console, display: display, svc: res.Service}, nil
}

// close shuts the service down, backing up the store if it was written. At end of input there
// is nobody left to answer the unsaved-changes prompt, so pending edits are dropped.
func (a *app) close(inputClosed bool) error {
	err := a.svc.Close(time.Now())
	if errors.Is(err, models.ErrAborted) && inputClosed {
		logger.L.Warn("Input closed with unsaved changes, discarding them")
		a.svc.MarkClean()
		err = a.svc.Close(time.Now())
	}
	return err
}

// describeError turns an engine error into the line shown to the user.
func describeError(err error) string {
	var pe *models.ParseError
	var se *models.StorageError
	var ce *models.ConfigError
	switch {
	case errors.Is(err, models.ErrAtBoundary):
		return "There is no record in that direction."
	case errors.Is(err, models.ErrAborted):
		return "Cancelled."
	case errors.Is(err, models.ErrNotFound):
		return fmt.Sprintf("Not found: %v", err)
	case errors.Is(err, models.ErrNoRecords):
		return "There is no record loaded."
	case errors.As(err, &pe):
		return fmt.Sprintf("Warning: %v", err)
	case errors.As(err, &se), errors.As(err, &ce):
		return fmt.Sprintf("ERROR: %v (details in %s)", err, logger.LogFilePath())
	}
	return fmt.Sprintf("Error: %v", err)
}
