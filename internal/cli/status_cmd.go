package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tguerin/timekeep/internal/cli/formatter"
	"github.com/tguerin/timekeep/internal/repository"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active session and today's total",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			active, err := app.Sessions.GetActive(ctx)
			if err != nil {
				return err
			}
			if active == nil {
				fmt.Println("No session running.")
			} else {
				fmt.Printf("%s %s  started %s  last checkpoint %s\n",
					formatter.StyleGreen.Render("●"),
					formatter.Bold(active.TaskKey),
					formatter.HumanTimestamp(active.StartTime),
					formatter.FormatSeconds(active.DurationSeconds))
			}

			today := time.Now().Format("2006-01-02")
			printDayLine(ctx, app, today)
			return nil
		},
	}
}

func printDayLine(ctx context.Context, app *App, date string) {
	summary, err := app.Summaries.GetByDate(ctx, date)
	if err != nil {
		if repository.IsNotFound(err) {
			fmt.Printf("%s: no time recorded.\n", formatter.HumanDate(date))
		}
		return
	}

	cap := app.Settings.MaxDailyMinutes(ctx)
	line := fmt.Sprintf("%s: %s of %s  %s",
		formatter.HumanDate(date),
		formatter.FormatMinutes(summary.TotalMinutes),
		formatter.FormatMinutes(cap),
		formatter.SummaryStatusPill(summary.Status))
	if summary.AdjustedMinutes != nil {
		line += formatter.Dim(fmt.Sprintf("  (adjusted to %s)", formatter.FormatMinutes(*summary.AdjustedMinutes)))
	}
	fmt.Println(line)
}
