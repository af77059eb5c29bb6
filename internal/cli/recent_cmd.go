package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tguerin/timekeep/internal/cli/formatter"
)

func newRecentCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently tracked tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			tasks, err := app.Recents.ListRecent(ctx, limit)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks tracked yet.")
				return nil
			}

			headers := []string{"TASK", "TITLE", "TYPE", "LAST USED"}
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []string{
					formatter.Bold(t.TaskKey),
					formatter.Truncate(t.TaskTitle, 40),
					t.TaskType,
					formatter.HumanTimestamp(t.LastUsedAt),
				})
			}
			fmt.Print(formatter.RenderTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of tasks to show")
	return cmd
}
