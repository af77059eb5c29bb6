package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tguerin/timekeep/internal/cli/formatter"
	"github.com/tguerin/timekeep/internal/reconcile"
)

func newTimesheetCmd(app *App) *cobra.Command {
	var date, from, to string

	cmd := &cobra.Command{
		Use:   "timesheet",
		Short: "Show recorded sessions grouped by task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if from != "" || to != "" {
				if from == "" || to == "" {
					return fmt.Errorf("--from and --to must be used together")
				}
				return printRangeTimesheet(ctx, app, from, to)
			}
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			return printDayTimesheet(ctx, app, date)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to show (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&from, "from", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Range end (YYYY-MM-DD)")
	return cmd
}

func printDayTimesheet(ctx context.Context, app *App, date string) error {
	sessions, err := app.Sessions.ListByDate(ctx, date)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Printf("No sessions on %s.\n", date)
		return nil
	}

	fmt.Println(formatter.Header(formatter.HumanDate(date)))

	headers := []string{"TASK", "ACTIVITY", "SESSIONS", "TOTAL", "STATUS"}
	var rows [][]string
	for _, g := range reconcile.BuildGroups(sessions) {
		status := g.Sessions[0].Status
		rows = append(rows, []string{
			formatter.Bold(g.Key.TaskKey),
			g.ActivityName,
			fmt.Sprintf("%d", len(g.Sessions)),
			formatter.FormatSeconds(g.OriginalTotalSeconds),
			formatter.SessionStatusPill(status),
		})
	}
	fmt.Print(formatter.RenderTable(headers, rows))

	printDayLine(ctx, app, date)
	return nil
}

func printRangeTimesheet(ctx context.Context, app *App, from, to string) error {
	summaries, err := app.Summaries.ListByRange(ctx, from, to)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Printf("No recorded days between %s and %s.\n", from, to)
		return nil
	}

	headers := []string{"DATE", "TOTAL", "ADJUSTED", "STATUS"}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		adjusted := formatter.Dim("-")
		if s.AdjustedMinutes != nil {
			adjusted = formatter.FormatMinutes(*s.AdjustedMinutes)
		}
		rows = append(rows, []string{
			s.Date,
			formatter.FormatMinutes(s.TotalMinutes),
			adjusted,
			formatter.SummaryStatusPill(s.Status),
		})
	}
	fmt.Print(formatter.RenderTable(headers, rows))
	return nil
}
