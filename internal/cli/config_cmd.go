package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tguerin/timekeep/internal/cli/formatter"
	"github.com/tguerin/timekeep/internal/config"
)

var configKeys = []string{
	config.KeyMaxDailyHours,
	config.KeyNotificationInterval,
	config.KeyIdleAlertEnabled,
	config.KeyIdleAlertInterval,
	config.KeyIdleAlertStartHour,
	config.KeyIdleAlertEndHour,
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show all configuration values",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				rows := make([][]string, 0, len(configKeys))
				for _, key := range configKeys {
					value, err := app.Settings.Get(ctx, key)
					if err != nil {
						value = formatter.Dim("(unset)")
					}
					rows = append(rows, []string{key, value})
				}
				fmt.Print(formatter.RenderTable([]string{"KEY", "VALUE"}, rows))
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Show one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := app.Settings.Get(context.Background(), args[0])
				if err != nil {
					return err
				}
				fmt.Println(value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Write one configuration value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.Settings.Set(context.Background(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("%s = %s\n", args[0], args[1])
				return nil
			},
		},
	)
	return cmd
}
