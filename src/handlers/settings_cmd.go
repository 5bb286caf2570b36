package handlers

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/username/weeklygiving/src/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			showSettings(cmd.OutOrStdout(), a.svc.Settings())
			return nil
		})
	},
}

var designationCmd = &cobra.Command{
	Use:   "designation <n> <label>",
	Short: "Rename special designation n; one past the last adds a designation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid designation number %q", args[0])
		}
		return withApp(cmd, func(a *app) error {
			return a.svc.ChangeDesignation(n-1, strings.Join(args[1:], " "))
		})
	},
}

var includeSpecialCmd = &cobra.Command{
	Use:   "include-special <on|off>",
	Short: "Count special designations in the total deposit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			return a.svc.SetIncludeSpecial(on)
		})
	},
}

var nameCmd = &cobra.Command{
	Use:   "name <name>",
	Short: "Change the name printed on reports",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			return a.svc.ChangeName(strings.Join(args, " "))
		})
	},
}

var maxChecksYes bool

var maxChecksCmd = &cobra.Command{
	Use:   "max-checks <n>",
	Short: "Change the number of check slots on every record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid number of checks %q", args[0])
		}
		return withApp(cmd, func(a *app) error {
			return a.svc.ChangeMaxChecks(n, func(from, to int) bool {
				if maxChecksYes {
					return true
				}
				return a.console.Confirm(fmt.Sprintf(
					"Reducing checks from %d to %d permanently deletes checks %d-%d from every record. Continue?",
					from, to, to+1, from))
			})
		})
	},
}

var relocateCmd = &cobra.Command{
	Use:   "relocate <path>",
	Short: "Copy the database to a new file and use it from now on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			return a.svc.SaveToNewLocation(args[0])
		})
	},
}

func init() {
	maxChecksCmd.Flags().BoolVarP(&maxChecksYes, "yes", "y", false, "do not ask before deleting check columns")
	settingsCmd.AddCommand(designationCmd, includeSpecialCmd, nameCmd, maxChecksCmd, relocateCmd)
}

func showSettings(w io.Writer, s *config.Settings) {
	fmt.Fprintf(w, "Settings file:    %s\n", s.Path())
	fmt.Fprintf(w, "Database:         %s\n", s.FileLoc)
	fmt.Fprintf(w, "Name:             %s\n", s.Name)
	fmt.Fprintf(w, "Number of checks: %d\n", s.MaxChecks)
	fmt.Fprintf(w, "Include special:  %t\n", s.IncludeSpecial)
	fmt.Fprintln(w, "Special designations:")
	for i, label := range s.SpecialLabels() {
		fmt.Fprintf(w, "  %d. %s\n", i+1, label)
	}
}
