package handlers

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/username/weeklygiving/src/config"
	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/parsers"
	"github.com/username/weeklygiving/src/services"
	"github.com/username/weeklygiving/src/utils"
)

var (
	reportOutput   string
	depositsFrom   string
	depositsTo     string
	depositsOutput string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every record with its date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			return listRecords(a.svc, cmd.OutOrStdout())
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the report of a saved record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record id %q", args[0])
		}
		return withApp(cmd, func(a *app) error {
			report, err := a.svc.Report(id)
			if err != nil {
				return err
			}
			writeReport(cmd.OutOrStdout(), report)
			return nil
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <id>",
	Short: "Write the report of a saved record as an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record id %q", args[0])
		}
		return withApp(cmd, func(a *app) error {
			report, err := a.svc.Report(id)
			if err != nil {
				return err
			}
			path := reportOutput
			if path == "" {
				path = fmt.Sprintf("weekly_giving_%d.xlsx", id)
			}
			if err := services.NewXLSXReportWriter().WriteReport(path, report); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
			return nil
		})
	},
}

var depositsCmd = &cobra.Command{
	Use:   "deposits",
	Short: "Show total deposits over a date range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		to := depositsTo
		if to == "" {
			to = utils.Today()
		}
		from := depositsFrom
		if from == "" {
			var err error
			if from, err = yearBefore(to); err != nil {
				return err
			}
		}
		return withApp(cmd, func(a *app) error {
			return showDeposits(a.svc, cmd.OutOrStdout(), from, to, depositsOutput)
		})
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the application log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if err := logger.InitLogger(cfg.LogLevel, cfg.LogFilePath); err != nil {
			return err
		}
		defer logger.Close()
		return showLog(cmd.OutOrStdout())
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "workbook to write (default weekly_giving_<id>.xlsx)")
	depositsCmd.Flags().StringVar(&depositsFrom, "from", "", "first date (default one year ago)")
	depositsCmd.Flags().StringVar(&depositsTo, "to", "", "last date (default today)")
	depositsCmd.Flags().StringVarP(&depositsOutput, "output", "o", "", "also write the history and a chart to this workbook")
}

// withApp runs fn against a started service and always closes it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := startApp(cmd, true)
	if err != nil {
		return err
	}
	runErr := fn(a)
	if err := a.close(true); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func listRecords(svc services.GivingService, w io.Writer) error {
	dates, err := svc.ListDates()
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		fmt.Fprintln(w, "No records yet.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE")
	for _, d := range dates {
		fmt.Fprintf(tw, "%d\t%s\n", d.ID, d.Date)
	}
	return tw.Flush()
}

func showDeposits(svc services.GivingService, w io.Writer, from, to, output string) error {
	points, err := svc.DepositHistory(from, to)
	if err != nil {
		return err
	}
	var total float64
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DATE\tID\tDEPOSIT\t")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", p.Date, p.ID, utils.FormatDollars(p.TotalDeposit))
		total += p.TotalDeposit
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%s\t\n", len(points), utils.FormatDollars(total))
	if err := tw.Flush(); err != nil {
		return err
	}

	if output != "" {
		title := fmt.Sprintf("%s Deposits %s to %s", svc.Settings().Name, from, to)
		if err := services.NewXLSXReportWriter().WriteDeposits(output, title, points); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deposit history written to %s\n", output)
	}
	return nil
}

// yearBefore returns the date one year before date, which may be in any form ParseDate accepts.
func yearBefore(date string) (string, error) {
	canonical, err := parsers.ParseDate(date)
	if err != nil {
		return "", err
	}
	t, err := utils.ParseISODate(canonical)
	if err != nil {
		return "", err
	}
	return t.AddDate(-1, 0, 0).Format(utils.ISODateFormat), nil
}

func showLog(w io.Writer) error {
	text, err := logger.ReadLog()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}
