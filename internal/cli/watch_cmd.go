package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tguerin/timekeep/internal/cli/formatter"
	"github.com/tguerin/timekeep/internal/idlewatch"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Prompt to start tracking when working untracked",
		Long: `Runs the idle-activity monitor in the foreground. During working hours
on weekdays, while no timer is running and the keyboard is in use, it
prints a reminder to start tracking, rate-limited by the configured
alert interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			state := &storedTimerState{app: app, errw: os.Stderr}
			// Input-idle time needs a desktop integration this CLI does not
			// have; treating the user as always active keeps the reminder
			// useful: it fires whenever no session is running in hours.
			idleTime := func() time.Duration { return 0 }

			monitor := idlewatch.New(app.Settings, state, idleTime, func() {
				fmt.Printf("%s %s no timer running. Start one with `timekeep track <task-key>`.\n",
					formatter.StyleYellow.Render("●"),
					time.Now().Format("15:04"))
			}, idlewatch.Options{})

			monitor.Start(ctx)
			defer monitor.Stop()
			fmt.Println("Watching for untracked work. Press Ctrl-C to quit.")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			return nil
		},
	}
}

// storedTimerState reads the running flag from the session store so the
// watcher sees sessions opened by other timekeep processes.
type storedTimerState struct {
	app  *App
	errw io.Writer
	warn sync.Once
}

func (s *storedTimerState) IsRunning() bool {
	active, err := s.app.Sessions.GetActive(context.Background())
	if err != nil {
		// Reported once rather than every 30-second poll.
		s.warn.Do(func() {
			fmt.Fprintf(s.errw, "checking timer state: %v\n", err)
		})
		return false
	}
	return active != nil
}
