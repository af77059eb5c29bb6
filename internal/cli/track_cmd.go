package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tguerin/timekeep/internal/cli/formatter"
	"github.com/tguerin/timekeep/internal/timer"
)

// TimerFactory builds a timer engine delivering events to the given sink.
type TimerFactory func(ctx context.Context, sink timer.EventSink) (*timer.Engine, error)

func newTrackCmd(app *App) *cobra.Command {
	var title, taskType, at string
	var activityID int
	var activityName, activityValue string

	cmd := &cobra.Command{
		Use:   "track <task-key>",
		Short: "Track time against a task until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			interactive := app.IsInteractive != nil && app.IsInteractive()

			sink := timer.SinkFunc(func(ev timer.Event) {
				switch ev.Kind {
				case timer.EventTick:
					if interactive {
						fmt.Printf("\r%s  %s", formatter.Bold(ev.TaskKey), formatter.Clock(ev.Elapsed))
					}
				case timer.EventConfirmWork:
					fmt.Printf("\n%s still working on %s? (timer keeps running)\n",
						formatter.StyleYellow.Render("●"), ev.TaskKey)
				case timer.EventCheckpointError:
					fmt.Fprintf(os.Stderr, "\ncheckpoint failed: %v\n", ev.Err)
				}
			})

			engine, err := app.NewTimer(ctx, sink)
			if err != nil {
				return err
			}

			opts := timer.StartOptions{
				TaskKey:       args[0],
				TaskTitle:     title,
				TaskType:      taskType,
				ActivityName:  activityName,
				ActivityValue: activityValue,
			}
			if cmd.Flags().Changed("activity-id") {
				opts.ActivityID = &activityID
			}
			opts.StartTime, err = startTimeFlag(at)
			if err != nil {
				return err
			}
			if opts.TaskTitle == "" {
				opts.TaskTitle = args[0]
			}

			id, err := engine.Start(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Printf("Tracking %s (session %s). Press Ctrl-C to stop.\n", formatter.Bold(args[0]), id)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			signal.Stop(sig)

			if err := engine.Stop(ctx); err != nil {
				return fmt.Errorf("stopping session: %w", err)
			}

			closed, err := app.Sessions.GetByID(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("\nStopped %s after %s.\n", args[0], formatter.FormatSeconds(closed.DurationSeconds))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title shown in timesheets and exports")
	cmd.Flags().StringVar(&taskType, "type", "Task", "Task type")
	cmd.Flags().IntVar(&activityID, "activity-id", 0, "Activity classifier id")
	cmd.Flags().StringVar(&activityName, "activity-name", "", "Activity display name")
	cmd.Flags().StringVar(&activityValue, "activity-value", "", "Activity value sent to the worklog system")
	cmd.Flags().StringVar(&at, "at", "", "Backdate the start to HH:MM today")

	return cmd
}

// startTimeFlag parses an optional HH:MM start override against today.
func startTimeFlag(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("15:04", v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parsing start time %q: %w", v, err)
	}
	now := time.Now()
	t := time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.Local)
	return &t, nil
}
