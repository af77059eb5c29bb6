package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tguerin/timekeep/internal/cli/formatter"
	"github.com/tguerin/timekeep/internal/domain"
)

func newDayCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Edit or reopen a recorded day",
	}

	cmd.AddCommand(
		newDaySetCmd(app),
		newDayReopenCmd(app),
	)
	return cmd
}

func newDaySetCmd(app *App) *cobra.Command {
	var activityID int

	cmd := &cobra.Command{
		Use:   "set <date> <task-key> <minutes>",
		Short: "Override a task group's total for a day",
		Long: `Sets the total duration of one task group on one date, splitting the
new total across the group's sessions in proportion to their recorded
durations.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, taskKey := args[0], args[1]
			minutes, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("parsing minutes %q: %w", args[2], err)
			}

			var id *int
			if cmd.Flags().Changed("activity-id") {
				id = &activityID
			}
			key := domain.NewGroupKey(taskKey, id)

			if err := app.Reconcile.UpdateTaskGroupDuration(context.Background(), date, key, minutes*60); err != nil {
				return err
			}
			fmt.Printf("Set %s on %s to %s.\n", taskKey, date, formatter.FormatMinutes(float64(minutes)))
			return nil
		},
	}

	cmd.Flags().IntVar(&activityID, "activity-id", 0, "Narrow the group to one activity classifier")
	return cmd
}

func newDayReopenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <date>",
		Short: "Revert a sent day so it can be reconciled again",
		Long: `Resets every sent session on the date back to draft, clears export
references and returns the day's summary to pending. Worklogs already
created downstream are not deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Reconcile.ReopenDay(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Reopened %s.\n", args[0])
			return nil
		},
	}
}
