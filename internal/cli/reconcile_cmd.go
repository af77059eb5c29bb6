package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tguerin/timekeep/internal/cli/formatter"
	"github.com/tguerin/timekeep/internal/reconcile"
)

func newReconcileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Scale a day's recorded time to the daily cap",
	}

	cmd.AddCommand(
		newReconcileAnalyzeCmd(app),
		newReconcileApplyCmd(app),
		newReconcilePendingCmd(app),
	)
	return cmd
}

func dateArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return time.Now().Format("2006-01-02")
}

func newReconcileAnalyzeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [date]",
		Short: "Preview the adjustment for a day without writing anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adj, err := app.Reconcile.AnalyzeDay(context.Background(), dateArg(args))
			if err != nil {
				return err
			}
			printAdjustment(adj)
			return nil
		},
	}
}

func newReconcileApplyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "apply [date]",
		Short: "Apply the adjustment and mark the day ready to send",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			date := dateArg(args)

			adj, err := app.Reconcile.AnalyzeDay(ctx, date)
			if err != nil {
				return err
			}
			if !adj.NeedsAdjustment {
				fmt.Printf("%s is already within the cap, nothing to apply.\n", date)
				return nil
			}
			if err := app.Reconcile.ApplyDayAdjustment(ctx, adj); err != nil {
				return err
			}
			fmt.Printf("Adjusted %s from %s to %s across %d task groups.\n",
				date,
				formatter.FormatMinutes(adj.OriginalTotalMinutes),
				formatter.FormatMinutes(adj.AdjustedTotalMinutes),
				len(adj.Groups))
			return nil
		},
	}
}

func newReconcilePendingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Analyze every day not yet sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := app.Reconcile.AnalyzePendingDays(context.Background())
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No pending days.")
				return nil
			}

			headers := []string{"DATE", "RECORDED", "TARGET", "NEEDS ADJUSTMENT"}
			rows := make([][]string, 0, len(results))
			for _, adj := range results {
				needs := formatter.Dim("no")
				if adj.NeedsAdjustment {
					needs = formatter.StyleYellow.Render("yes")
				}
				rows = append(rows, []string{
					adj.Date,
					formatter.FormatMinutes(adj.OriginalTotalMinutes),
					formatter.FormatMinutes(adj.CapMinutes),
					needs,
				})
			}
			fmt.Print(formatter.RenderTable(headers, rows))
			return nil
		},
	}
}

func printAdjustment(adj *reconcile.DailyAdjustment) {
	fmt.Println(formatter.Header(adj.Date))
	fmt.Printf("Recorded %s, cap %s.\n",
		formatter.FormatMinutes(adj.OriginalTotalMinutes),
		formatter.FormatMinutes(adj.CapMinutes))

	if !adj.NeedsAdjustment {
		fmt.Println("Within the cap, no adjustment needed.")
		return
	}

	headers := []string{"TASK", "ACTIVITY", "RECORDED", "ADJUSTED"}
	rows := make([][]string, 0, len(adj.Groups))
	for _, g := range adj.Groups {
		adjusted := formatter.FormatSeconds(g.AdjustedTotalSeconds)
		if g.WasAdjusted {
			adjusted = formatter.StyleYellow.Render(adjusted)
		}
		rows = append(rows, []string{
			formatter.Bold(g.Key.TaskKey),
			g.ActivityName,
			formatter.FormatSeconds(g.OriginalTotalSeconds),
			adjusted,
		})
	}
	fmt.Print(formatter.RenderTable(headers, rows))
	fmt.Println(formatter.Dim("Run `timekeep reconcile apply` to persist."))
}
