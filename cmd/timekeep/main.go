package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/tguerin/timekeep/internal/cli"
	"github.com/tguerin/timekeep/internal/config"
	"github.com/tguerin/timekeep/internal/db"
	"github.com/tguerin/timekeep/internal/export"
	"github.com/tguerin/timekeep/internal/reconcile"
	"github.com/tguerin/timekeep/internal/repository"
	"github.com/tguerin/timekeep/internal/timer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Determine DB path: env var or default ~/.timekeep/timekeep.db
	dbPath := os.Getenv("TIMEKEEP_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dir := filepath.Join(home, ".timekeep")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		dbPath = filepath.Join(dir, "timekeep.db")
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	sessionRepo := repository.NewSQLiteSessionRepo(database)
	summaryRepo := repository.NewSQLiteSummaryRepo(database)
	recentRepo := repository.NewSQLiteRecentTaskRepo(database)
	settings := config.NewSettings(repository.NewSQLiteConfigRepo(database))
	uow := db.NewSQLiteUnitOfWork(database)

	app := &cli.App{
		Sessions:  sessionRepo,
		Summaries: summaryRepo,
		Recents:   recentRepo,
		Settings:  settings,
		Reconcile: reconcile.NewEngine(sessionRepo, summaryRepo, uow, settings),
	}

	// Worklog export is optional; the send command reports when it is
	// missing.
	if baseURL := os.Getenv("TIMEKEEP_EXPORT_URL"); baseURL != "" {
		exporter := export.NewHTTPClient(export.Config{
			BaseURL:   baseURL,
			APIToken:  os.Getenv("TIMEKEEP_EXPORT_TOKEN"),
			AccountID: os.Getenv("TIMEKEEP_EXPORT_ACCOUNT"),
		})
		app.Export = export.NewService(sessionRepo, summaryRepo, uow, exporter)
	}

	app.NewTimer = func(ctx context.Context, sink timer.EventSink) (*timer.Engine, error) {
		return timer.New(ctx, sessionRepo, summaryRepo, recentRepo, sink, timer.Options{
			NotificationInterval: settings.NotificationInterval(ctx),
		})
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
