package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSendCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "send [date]",
		Short: "Export a reconciled day to the worklog system",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Export == nil {
				return fmt.Errorf("export is not configured: set TIMEKEEP_EXPORT_URL and TIMEKEEP_EXPORT_TOKEN")
			}
			date := dateArg(args)
			if err := app.Export.SendDay(context.Background(), date); err != nil {
				return err
			}
			fmt.Printf("Sent %s.\n", date)
			return nil
		},
	}
}
