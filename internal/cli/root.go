// Package cli wires the cobra command tree over the timer, reconciliation
// and export services.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/tguerin/timekeep/internal/config"
	"github.com/tguerin/timekeep/internal/export"
	"github.com/tguerin/timekeep/internal/reconcile"
	"github.com/tguerin/timekeep/internal/repository"
)

// App holds the shared dependencies CLI commands run against.
type App struct {
	Sessions  repository.SessionRepo
	Summaries repository.SummaryRepo
	Recents   repository.RecentTaskRepo
	Settings  *config.Settings
	Reconcile *reconcile.Engine

	// Export is nil when no worklog endpoint is configured.
	Export *export.Service

	// NewTimer constructs a timer engine bound to the given event sink.
	// The engine is created per track invocation so crash recovery runs
	// at the moment tracking starts.
	NewTimer TimerFactory

	// IsInteractive reports whether stdout is a terminal; non-interactive
	// output drops the live ticking line.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "timekeep" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "timekeep",
		Short:         "Work timer with daily time-budget reconciliation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTrackCmd(app),
		newStatusCmd(app),
		newRecentCmd(app),
		newTimesheetCmd(app),
		newReconcileCmd(app),
		newDayCmd(app),
		newSendCmd(app),
		newWatchCmd(app),
		newConfigCmd(app),
	)

	return root
}
